package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	due     []models.User
	renewed map[uint]time.Time
	listErr error
}

func newFakeUserRepo(due ...models.User) *fakeUserRepo {
	return &fakeUserRepo{due: due, renewed: map[uint]time.Time{}}
}

func (f *fakeUserRepo) Create(user *models.User) error              { return nil }
func (f *fakeUserRepo) GetByID(id uint) (*models.User, error)       { return nil, nil }
func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Update(user *models.User) error { return nil }
func (f *fakeUserRepo) Delete(id uint) error           { return nil }
func (f *fakeUserRepo) List(offset, limit int) ([]models.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Count() (int64, error) { return 0, nil }

func (f *fakeUserRepo) ListDueForCreditRenewal(before time.Time, limit int) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.due, nil
}

func (f *fakeUserRepo) MarkCreditsRenewed(userID uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewed[userID] = at
	return nil
}

type fakeGranter struct {
	mu     sync.Mutex
	grants map[uint]uint
	err    error
}

func newFakeGranter() *fakeGranter {
	return &fakeGranter{grants: map[uint]uint{}}
}

func (f *fakeGranter) Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.grants[userID] += amount
	return f.grants[userID], nil
}

func TestRenewDueGrantsByEffectiveTier(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	future := now.Add(30 * 24 * time.Hour)

	repo := newFakeUserRepo(
		models.User{ID: 1, SubscriptionTier: "free"},
		models.User{ID: 2, SubscriptionTier: "pro", SubscriptionExpiresAt: &future},
		models.User{ID: 3, SubscriptionTier: "pro", SubscriptionExpiresAt: &expired},
		models.User{ID: 4, SubscriptionTier: "enterprise"},
	)
	granter := newFakeGranter()

	w := NewRenewalWorker(repo, granter, time.Hour)
	w.now = func() time.Time { return now }
	w.RenewDue(context.Background())

	assert.Equal(t, uint(10), granter.grants[1], "free tier monthly credits")
	assert.Equal(t, uint(100), granter.grants[2], "pro tier monthly credits")
	assert.Equal(t, uint(10), granter.grants[3], "expired pro renews at free rate")
	assert.Equal(t, uint(500), granter.grants[4], "enterprise tier monthly credits")

	for _, id := range []uint{1, 2, 3, 4} {
		assert.Equal(t, now, repo.renewed[id], "user %d must be marked renewed", id)
	}
}

func TestRenewDueSkipsMarkOnGrantFailure(t *testing.T) {
	repo := newFakeUserRepo(models.User{ID: 1, SubscriptionTier: "free"})
	granter := newFakeGranter()
	granter.err = errors.New("db down")

	w := NewRenewalWorker(repo, granter, time.Hour)
	w.RenewDue(context.Background())

	assert.Empty(t, repo.renewed, "a failed grant must leave the account due for the next sweep")
}

func TestRenewDueToleratesListFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.listErr = errors.New("db down")
	granter := newFakeGranter()

	w := NewRenewalWorker(repo, granter, time.Hour)
	w.RenewDue(context.Background())

	assert.Empty(t, granter.grants)
}

func TestStartStop(t *testing.T) {
	repo := newFakeUserRepo()
	w := NewRenewalWorker(repo, newFakeGranter(), time.Hour)

	require.False(t, w.running)

	w.Start()
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	assert.True(t, running)

	// Double start is a no-op.
	w.Start()

	w.Stop()
	w.mu.Lock()
	running = w.running
	w.mu.Unlock()
	assert.False(t, running)

	// Double stop is a no-op.
	w.Stop()
}
