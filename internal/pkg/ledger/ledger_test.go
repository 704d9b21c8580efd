package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepository mirrors the guarded-update semantics of the SQL
// repository: the balance check and the decrement happen under one lock.
type memRepository struct {
	mu       sync.Mutex
	balance  uint
	lifetime uint
	txTypes  []string
}

func newMemRepository(balance uint) *memRepository {
	return &memRepository{balance: balance, lifetime: balance}
}

func (m *memRepository) Debit(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance < amount {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCredits, amount, m.balance)
	}
	m.balance -= amount
	m.txTypes = append(m.txTypes, "debit")
	return m.balance, nil
}

func (m *memRepository) Refund(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance += amount
	m.txTypes = append(m.txTypes, "refund")
	return m.balance, nil
}

func (m *memRepository) Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance += amount
	m.lifetime += amount
	m.txTypes = append(m.txTypes, "grant")
	return m.balance, nil
}

func (m *memRepository) Balance(ctx context.Context, userID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func TestDebitSuccess(t *testing.T) {
	svc := NewService(newMemRepository(10))

	remaining, err := svc.Debit(context.Background(), 1, 3, "cover batch")
	require.NoError(t, err)
	assert.Equal(t, uint(7), remaining)
}

func TestDebitInsufficient(t *testing.T) {
	repo := newMemRepository(2)
	svc := NewService(repo)

	_, err := svc.Debit(context.Background(), 1, 3, "cover batch")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// A failed debit must leave the balance untouched.
	balance, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), balance)
}

func TestDebitExactBalance(t *testing.T) {
	svc := NewService(newMemRepository(5))

	remaining, err := svc.Debit(context.Background(), 1, 5, "cover batch")
	require.NoError(t, err)
	assert.Equal(t, uint(0), remaining)
}

func TestZeroAmountIsNoOp(t *testing.T) {
	repo := newMemRepository(4)
	svc := NewService(repo)

	for _, op := range []func() (uint, error){
		func() (uint, error) { return svc.Debit(context.Background(), 1, 0, "noop") },
		func() (uint, error) { return svc.Refund(context.Background(), 1, 0, "noop") },
		func() (uint, error) { return svc.Grant(context.Background(), 1, 0, "noop") },
	} {
		balance, err := op()
		require.NoError(t, err)
		assert.Equal(t, uint(4), balance)
	}
	assert.Empty(t, repo.txTypes, "zero amounts must not write transactions")
}

func TestRefundDoesNotRaiseLifetime(t *testing.T) {
	repo := newMemRepository(10)
	svc := NewService(repo)

	_, err := svc.Debit(context.Background(), 1, 4, "cover batch")
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), 1, 4, "batch failed")
	require.NoError(t, err)

	assert.Equal(t, uint(10), repo.balance)
	assert.Equal(t, uint(10), repo.lifetime, "refunds must not count as new credits")
}

func TestGrantRaisesLifetime(t *testing.T) {
	repo := newMemRepository(0)
	svc := NewService(repo)

	balance, err := svc.Grant(context.Background(), 1, 100, "monthly renewal")
	require.NoError(t, err)
	assert.Equal(t, uint(100), balance)
	assert.Equal(t, uint(100), repo.lifetime)
}

// TestConcurrentDebitsNeverOversell hammers a small balance from many
// goroutines and checks that exactly balance/amount debits succeed.
func TestConcurrentDebitsNeverOversell(t *testing.T) {
	const (
		start      = 10
		goroutines = 100
	)
	repo := newMemRepository(start)
	svc := NewService(repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(context.Background(), 1, 1, "race"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, start, succeeded, "exactly the available credits may be spent")
	assert.Equal(t, uint(0), repo.balance)
}

// TestConcurrentMixedOpsConserveBalance checks that interleaved grants,
// debits and refunds keep the books consistent.
func TestConcurrentMixedOpsConserveBalance(t *testing.T) {
	repo := newMemRepository(0)
	svc := NewService(repo)

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Grant(context.Background(), 1, 2, "grant")
			assert.NoError(t, err)
			_, err = svc.Debit(context.Background(), 1, 1, "spend")
			assert.NoError(t, err)
			_, err = svc.Refund(context.Background(), 1, 1, "refund")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each round: +2 grant, -1 debit, +1 refund.
	assert.Equal(t, uint(2*rounds), repo.balance)
	assert.Equal(t, uint(2*rounds), repo.lifetime)
}
