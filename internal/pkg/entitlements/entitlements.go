package entitlements

import (
	"strings"
	"time"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Unlimited marks a limit that is not enforced for the tier.
const Unlimited = -1

// Limits is the static entitlement profile of a tier.
type Limits struct {
	MaxProjects           int
	MaxExportsPerMonth    int
	MaxChaptersPerProject int
	MonthlyCredits        uint
	ExportFormats         []string
	Watermark             bool
	TemplateMarketplace   bool
	MaxVersions           int
}

var tierLimits = map[Tier]Limits{
	TierFree: {
		MaxProjects:           3,
		MaxExportsPerMonth:    5,
		MaxChaptersPerProject: 20,
		MonthlyCredits:        10,
		ExportFormats:         []string{"txt", "pdf"},
		Watermark:             true,
		TemplateMarketplace:   false,
		MaxVersions:           3,
	},
	TierPro: {
		MaxProjects:           25,
		MaxExportsPerMonth:    50,
		MaxChaptersPerProject: 100,
		MonthlyCredits:        100,
		ExportFormats:         []string{"txt", "pdf", "epub", "docx"},
		Watermark:             false,
		TemplateMarketplace:   true,
		MaxVersions:           25,
	},
	TierEnterprise: {
		MaxProjects:           Unlimited,
		MaxExportsPerMonth:    Unlimited,
		MaxChaptersPerProject: Unlimited,
		MonthlyCredits:        500,
		ExportFormats:         []string{"txt", "pdf", "epub", "docx"},
		Watermark:             false,
		TemplateMarketplace:   true,
		MaxVersions:           Unlimited,
	},
}

// NormalizeTier maps arbitrary input to a known tier, defaulting to free.
func NormalizeTier(tier string) Tier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(TierPro):
		return TierPro
	case string(TierEnterprise):
		return TierEnterprise
	default:
		return TierFree
	}
}

// TierRank orders tiers by entitlement level.
func TierRank(tier Tier) int {
	switch tier {
	case TierEnterprise:
		return 2
	case TierPro:
		return 1
	default:
		return 0
	}
}

// EffectiveTier collapses an expired paid subscription to the free tier.
// A nil expiry means the subscription does not lapse.
func EffectiveTier(tier string, expiresAt *time.Time, now time.Time) Tier {
	t := NormalizeTier(tier)
	if t == TierFree {
		return TierFree
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return TierFree
	}
	return t
}

// LimitsFor returns the limit profile for a tier. Unknown tiers get the
// free profile.
func LimitsFor(tier Tier) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// AllowsFormat reports whether the profile permits exporting to format.
func (l Limits) AllowsFormat(format string) bool {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, allowed := range l.ExportFormats {
		if allowed == f {
			return true
		}
	}
	return false
}

// WithinLimit reports whether a live count leaves room under limit,
// honoring the Unlimited sentinel.
func WithinLimit(count int64, limit int) bool {
	if limit == Unlimited {
		return true
	}
	return count < int64(limit)
}
