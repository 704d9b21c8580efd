// Package worker runs background maintenance tasks for the credit
// system.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/entitlements"
)

const (
	// renewalPeriod is how old the last grant must be before a user is
	// due again.
	renewalPeriod = 30 * 24 * time.Hour

	// renewalBatchSize bounds how many accounts one sweep touches.
	renewalBatchSize = 200

	defaultCheckInterval = 1 * time.Hour
)

// CreditGranter is the slice of the ledger the worker needs.
type CreditGranter interface {
	Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error)
}

// RenewalWorker periodically grants each account its tier's monthly AI
// credits.
type RenewalWorker struct {
	users    repository.UserRepository
	ledger   CreditGranter
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	now      func() time.Time
}

// NewRenewalWorker creates a renewal worker. A zero interval falls back
// to the default hourly sweep.
func NewRenewalWorker(users repository.UserRepository, creditLedger CreditGranter, interval time.Duration) *RenewalWorker {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &RenewalWorker{
		users:    users,
		ledger:   creditLedger,
		interval: interval,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the background sweep loop
func (w *RenewalWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	// Recreate stop channel so the worker can be restarted safely.
	w.stopCh = make(chan struct{})
	w.running = true
	log.Infof("[CreditRenewal] Starting sweep loop (interval=%s)", w.interval)

	w.wg.Add(1)
	go w.run()
}

// Stop halts the sweep loop and waits for it to finish
func (w *RenewalWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	log.Info("[CreditRenewal] Stopping...")
	close(w.stopCh)
	w.running = false
	w.wg.Wait()
	log.Info("[CreditRenewal] Stopped")
}

func (w *RenewalWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RenewDue(context.Background())
		}
	}
}

// RenewDue grants monthly credits to every account whose last grant is
// older than the renewal period. Exported so an admin task can trigger
// a sweep outside the ticker.
func (w *RenewalWorker) RenewDue(ctx context.Context) {
	now := w.now()
	cutoff := now.Add(-renewalPeriod)

	users, err := w.users.ListDueForCreditRenewal(cutoff, renewalBatchSize)
	if err != nil {
		log.Errorf("[CreditRenewal] listing due accounts failed: %v", err)
		return
	}

	for _, user := range users {
		tier := entitlements.EffectiveTier(user.SubscriptionTier, user.SubscriptionExpiresAt, now)
		amount := entitlements.LimitsFor(tier).MonthlyCredits
		if amount > 0 {
			if _, err := w.ledger.Grant(ctx, user.ID, amount, "monthly renewal"); err != nil {
				log.Errorf("[CreditRenewal] grant for user %d failed: %v", user.ID, err)
				continue
			}
		}
		if err := w.users.MarkCreditsRenewed(user.ID, now); err != nil {
			log.Errorf("[CreditRenewal] marking user %d renewed failed: %v", user.ID, err)
		}
	}

	if len(users) > 0 {
		log.Infof("[CreditRenewal] Renewed credits for %d accounts", len(users))
	}
}
