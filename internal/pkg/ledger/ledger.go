// Package ledger owns every mutation of a user's AI credit balance.
//
// Credits are a shared resource hit by concurrent requests (two tabs can
// fire two generation calls), so the balance check and the decrement are
// a single guarded UPDATE in the repository, never a read followed by a
// write.
package ledger

import (
	"context"
	"errors"
)

// ErrInsufficientCredits is returned when a debit would take the balance
// negative. The balance is left untouched.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Repository provides atomic balance mutations. Each successful mutation
// records a credit transaction row in the same database transaction and
// returns the resulting balance.
type Repository interface {
	// Debit decrements the balance only if it holds at least amount.
	Debit(ctx context.Context, userID uint, amount uint, reason string) (uint, error)
	// Refund increments the spendable balance. Lifetime credits stay
	// untouched: they count credits ever granted, not spending reversed.
	Refund(ctx context.Context, userID uint, amount uint, reason string) (uint, error)
	// Grant increments both the spendable balance and lifetime credits.
	Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error)
	// Balance reads the current spendable balance.
	Balance(ctx context.Context, userID uint) (uint, error)
}

// Service is the credit ledger fronting an injected repository.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Debit removes amount credits from the user's balance, failing with
// ErrInsufficientCredits when the balance cannot cover it. A zero amount
// is a no-op that returns the current balance.
func (s *Service) Debit(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	if amount == 0 {
		return s.repo.Balance(ctx, userID)
	}
	return s.repo.Debit(ctx, userID, amount, reason)
}

// Refund restores amount credits to the spendable balance.
func (s *Service) Refund(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	if amount == 0 {
		return s.repo.Balance(ctx, userID)
	}
	return s.repo.Refund(ctx, userID, amount, reason)
}

// Grant awards amount new credits, raising lifetime credits as well.
// Used at signup, subscription upgrade and monthly renewal.
func (s *Service) Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	if amount == 0 {
		return s.repo.Balance(ctx, userID)
	}
	return s.repo.Grant(ctx, userID, amount, reason)
}

// Balance returns the user's current spendable balance.
func (s *Service) Balance(ctx context.Context, userID uint) (uint, error) {
	return s.repo.Balance(ctx, userID)
}
