package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/ledger"
)

const (
	// MaxBatchSize caps the number of generation attempts per request.
	MaxBatchSize = 5

	// settleRetries bounds the settlement loop when the balance moved
	// between the admission check and the debit.
	settleRetries = 3
)

var (
	// ErrGenerationFailed is returned when every attempt in a batch
	// failed. Nothing is charged in that case.
	ErrGenerationFailed = errors.New("all generation attempts failed")
	// ErrForbidden is returned when the project is not owned by the caller.
	ErrForbidden = errors.New("project does not belong to user")
	// ErrInvalidCount is returned for a count outside 1..MaxBatchSize.
	ErrInvalidCount = fmt.Errorf("count must be between 1 and %d", MaxBatchSize)
)

// CreditLedger is the slice of the ledger the orchestrator needs.
type CreditLedger interface {
	Balance(ctx context.Context, userID uint) (uint, error)
	Debit(ctx context.Context, userID uint, amount uint, reason string) (uint, error)
}

// Repository provides project lookup and cover persistence.
type Repository interface {
	GetProject(ctx context.Context, projectID uint) (*models.Project, error)
	CreateCovers(ctx context.Context, covers []models.Cover) error
}

// BatchInput describes one cover generation batch request.
type BatchInput struct {
	UserID    uint
	ProjectID uint
	Prompt    string
	Count     int
	Style     string
}

// BatchResult is the outcome of a batch. Partial success is a normal
// result: CreditsUsed can be smaller than the requested count.
type BatchResult struct {
	BatchID          string        `json:"batch_id"`
	Artifacts        []ArtifactRef `json:"artifacts"`
	CreditsUsed      uint          `json:"credits_used"`
	CreditsRemaining uint          `json:"credits_remaining"`
}

// Orchestrator runs metered cover generation batches.
type Orchestrator struct {
	generator Generator
	ledger    CreditLedger
	repo      Repository
	tracker   *StatusTracker
}

// NewOrchestrator wires a batch orchestrator.
func NewOrchestrator(generator Generator, creditLedger CreditLedger, repo Repository, tracker *StatusTracker) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		ledger:    creditLedger,
		repo:      repo,
		tracker:   tracker,
	}
}

// RunBatch executes up to in.Count independent generation attempts and
// settles the ledger for exactly the successful ones.
//
// The admission check against the balance is optimistic, not a
// reservation: a concurrent debit can still shrink the balance before
// settlement. In that case the already produced artifacts are kept (the
// upload is not reversible) and the charge is the smaller affordable
// amount.
func (o *Orchestrator) RunBatch(ctx context.Context, in BatchInput) (*BatchResult, error) {
	if in.Count < 1 || in.Count > MaxBatchSize {
		return nil, ErrInvalidCount
	}

	project, err := o.repo.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnedBy(in.UserID) {
		return nil, ErrForbidden
	}

	balance, err := o.ledger.Balance(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if balance < uint(in.Count) {
		return nil, fmt.Errorf("%w: need %d, have %d", ledger.ErrInsufficientCredits, in.Count, balance)
	}

	batchID := uuid.New().String()
	o.tracker.Set(batchID, BatchStatus{State: BatchProcessing, Requested: in.Count})

	// Attempts run in order and are isolated: one failure never aborts
	// the rest. Cancellation stops attempts that have not started yet.
	artifacts := make([]ArtifactRef, 0, in.Count)
	covers := make([]models.Cover, 0, in.Count)
	for attempt := 0; attempt < in.Count; attempt++ {
		if ctx.Err() != nil {
			log.Warnf("[Generation] batch %s cancelled after %d attempts", batchID, attempt)
			break
		}
		style := StyleForAttempt(in.Style, attempt)
		ref, genErr := o.generator.Generate(ctx, in.Prompt, style)
		if genErr != nil {
			log.Warnf("[Generation] batch %s attempt %d failed: %v", batchID, attempt, genErr)
			continue
		}
		artifacts = append(artifacts, *ref)
		covers = append(covers, models.Cover{
			UUID:         ref.UUID,
			ProjectID:    in.ProjectID,
			UserID:       in.UserID,
			BatchID:      batchID,
			AttemptIndex: attempt,
			Prompt:       in.Prompt,
			Style:        style,
			ObjectKey:    ref.ObjectKey,
			URL:          ref.URL,
		})
	}

	if len(artifacts) == 0 {
		o.tracker.Set(batchID, BatchStatus{State: BatchFailed, Requested: in.Count})
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrGenerationFailed
	}

	// Settlement and persistence run on a detached context: the
	// artifacts already exist, so completed attempts are charged and
	// recorded even when the request was cancelled mid-batch.
	settleCtx := context.WithoutCancel(ctx)

	charged, remaining, err := o.settle(settleCtx, in.UserID, uint(len(artifacts)), batchID)
	if err != nil {
		o.tracker.Set(batchID, BatchStatus{State: BatchFailed, Requested: in.Count, Succeeded: len(artifacts)})
		return nil, err
	}

	if err := o.repo.CreateCovers(settleCtx, covers); err != nil {
		// Artifacts exist in object storage and the ledger is settled;
		// losing the rows is not a reason to fail the whole call.
		log.Errorf("[Generation] batch %s: persisting covers failed: %v", batchID, err)
	}

	o.tracker.Set(batchID, BatchStatus{
		State:     BatchCompleted,
		Requested: in.Count,
		Succeeded: len(artifacts),
		Charged:   int(charged),
	})

	return &BatchResult{
		BatchID:          batchID,
		Artifacts:        artifacts,
		CreditsUsed:      charged,
		CreditsRemaining: remaining,
	}, nil
}

// settle debits exactly the successful count. When the debit loses a
// race against a concurrent spend it retries with the amount that is
// still affordable; generated artifacts are never discarded to undo a
// charge.
func (o *Orchestrator) settle(ctx context.Context, userID uint, successes uint, batchID string) (uint, uint, error) {
	reason := "cover batch " + batchID
	amount := successes
	for i := 0; i <= settleRetries; i++ {
		if amount == 0 {
			remaining, err := o.ledger.Balance(ctx, userID)
			if err != nil {
				return 0, 0, err
			}
			return 0, remaining, nil
		}
		remaining, err := o.ledger.Debit(ctx, userID, amount, reason)
		if err == nil {
			return amount, remaining, nil
		}
		if !errors.Is(err, ledger.ErrInsufficientCredits) {
			return 0, 0, err
		}
		balance, balErr := o.ledger.Balance(ctx, userID)
		if balErr != nil {
			return 0, 0, balErr
		}
		if balance < amount {
			amount = balance
		}
	}
	log.Errorf("[Generation] batch %s: settlement kept losing debit races, charging nothing", batchID)
	remaining, err := o.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return 0, remaining, nil
}
