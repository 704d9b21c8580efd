package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

var (
	// ErrQuotaExceeded is returned when a countable limit is reached.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrCapabilityDenied is returned when the tier lacks a capability.
	ErrCapabilityDenied = errors.New("capability not included in plan")
)

// Repository provides the reads the resolver needs. Implemented by the
// app repository layer; faked in tests.
type Repository interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	CountProjectsByUser(ctx context.Context, userID uint) (int64, error)
	CountChaptersByProject(ctx context.Context, projectID uint) (int64, error)
	CountExportsByUserSince(ctx context.Context, userID uint, since time.Time) (int64, error)
}

// Service resolves effective tier limits and enforces quota checks.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an entitlement service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ResolveLimits returns the currently effective limit profile for a user.
// An expired paid subscription resolves to the free profile.
func (s *Service) ResolveLimits(ctx context.Context, userID uint) (Limits, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Limits{}, err
	}
	tier := EffectiveTier(user.SubscriptionTier, user.SubscriptionExpiresAt, s.now())
	return LimitsFor(tier), nil
}

// CheckProjectQuota fails with ErrQuotaExceeded when the user cannot
// create another project.
func (s *Service) CheckProjectQuota(ctx context.Context, userID uint) error {
	limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountProjectsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !WithinLimit(count, limits.MaxProjects) {
		return fmt.Errorf("%w: project limit %d reached", ErrQuotaExceeded, limits.MaxProjects)
	}
	return nil
}

// CheckChapterQuota fails with ErrQuotaExceeded when the project cannot
// take another chapter under the owner's effective tier.
func (s *Service) CheckChapterQuota(ctx context.Context, userID, projectID uint) error {
	limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountChaptersByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !WithinLimit(count, limits.MaxChaptersPerProject) {
		return fmt.Errorf("%w: chapter limit %d reached", ErrQuotaExceeded, limits.MaxChaptersPerProject)
	}
	return nil
}

// CheckExportQuota enforces the calendar-month export allowance.
func (s *Service) CheckExportQuota(ctx context.Context, userID uint) error {
	limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	count, err := s.repo.CountExportsByUserSince(ctx, userID, monthStart)
	if err != nil {
		return err
	}
	if !WithinLimit(count, limits.MaxExportsPerMonth) {
		return fmt.Errorf("%w: export limit %d reached for this month", ErrQuotaExceeded, limits.MaxExportsPerMonth)
	}
	return nil
}

// CheckExportFormat fails with ErrCapabilityDenied when the effective
// tier does not include the requested export format.
func (s *Service) CheckExportFormat(ctx context.Context, userID uint, format string) error {
	limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return err
	}
	if !limits.AllowsFormat(format) {
		return fmt.Errorf("%w: format %q", ErrCapabilityDenied, format)
	}
	return nil
}
