package entitlements

import (
	"testing"
	"time"
)

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{in: "free", want: TierFree},
		{in: "pro", want: TierPro},
		{in: "enterprise", want: TierEnterprise},
		{in: "PRO", want: TierPro},
		{in: "  enterprise  ", want: TierEnterprise},
		{in: "premium", want: TierFree},
		{in: "", want: TierFree},
	}

	for _, tt := range tests {
		if got := NormalizeTier(tt.in); got != tt.want {
			t.Fatalf("NormalizeTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierRank(t *testing.T) {
	if TierRank(TierFree) >= TierRank(TierPro) {
		t.Fatalf("expected pro to outrank free")
	}
	if TierRank(TierPro) >= TierRank(TierEnterprise) {
		t.Fatalf("expected enterprise to outrank pro")
	}
}

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		tier      string
		expiresAt *time.Time
		want      Tier
	}{
		{name: "free stays free", tier: "free", want: TierFree},
		{name: "pro without expiry", tier: "pro", want: TierPro},
		{name: "pro active", tier: "pro", expiresAt: &future, want: TierPro},
		{name: "pro expired collapses to free", tier: "pro", expiresAt: &past, want: TierFree},
		{name: "enterprise expired collapses to free", tier: "enterprise", expiresAt: &past, want: TierFree},
		{name: "unknown tier", tier: "gold", expiresAt: &future, want: TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveTier(tt.tier, tt.expiresAt, now); got != tt.want {
				t.Fatalf("EffectiveTier(%q) = %q, want %q", tt.tier, got, tt.want)
			}
		})
	}
}

func TestLimitsForUnknownTierFallsBackToFree(t *testing.T) {
	got := LimitsFor(Tier("gold"))
	want := LimitsFor(TierFree)
	if got.MaxProjects != want.MaxProjects || got.MonthlyCredits != want.MonthlyCredits {
		t.Fatalf("unknown tier should resolve to the free profile, got %+v", got)
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		count int64
		limit int
		want  bool
	}{
		{count: 0, limit: 3, want: true},
		{count: 2, limit: 3, want: true},
		{count: 3, limit: 3, want: false},
		{count: 5, limit: 3, want: false},
		{count: 1000000, limit: Unlimited, want: true},
	}

	for _, tt := range tests {
		if got := WithinLimit(tt.count, tt.limit); got != tt.want {
			t.Fatalf("WithinLimit(%d, %d) = %v, want %v", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestAllowsFormat(t *testing.T) {
	free := LimitsFor(TierFree)
	if !free.AllowsFormat("txt") || !free.AllowsFormat("PDF") {
		t.Fatalf("free tier should allow txt and pdf")
	}
	if free.AllowsFormat("epub") || free.AllowsFormat("docx") {
		t.Fatalf("free tier should not allow epub or docx")
	}

	pro := LimitsFor(TierPro)
	for _, format := range []string{"txt", "pdf", "epub", "docx"} {
		if !pro.AllowsFormat(format) {
			t.Fatalf("pro tier should allow %q", format)
		}
	}
}

func TestFreeTierHasWatermark(t *testing.T) {
	if !LimitsFor(TierFree).Watermark {
		t.Fatalf("free exports should carry a watermark")
	}
	if LimitsFor(TierPro).Watermark || LimitsFor(TierEnterprise).Watermark {
		t.Fatalf("paid exports should not carry a watermark")
	}
}
