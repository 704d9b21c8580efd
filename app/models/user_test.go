package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_ACTIVE, user.Status)
	assert.Equal(t, TIER_FREE, user.SubscriptionTier)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "short username", username: "ab", email: "a@example.com", password: "secret123"},
		{name: "bad email", username: "alice", email: "not-an-email", password: "secret123"},
		{name: "short password", username: "alice", email: "a@example.com", password: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateUser(tt.username, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestHasActiveSubscription(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		tier      string
		expiresAt *time.Time
		want      bool
	}{
		{name: "free never has one", tier: TIER_FREE, want: false},
		{name: "pro without expiry", tier: TIER_PRO, want: true},
		{name: "pro active", tier: TIER_PRO, expiresAt: &future, want: true},
		{name: "pro expired", tier: TIER_PRO, expiresAt: &past, want: false},
		{name: "enterprise expired", tier: TIER_ENTERPRISE, expiresAt: &past, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{SubscriptionTier: tt.tier, SubscriptionExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, u.HasActiveSubscription())
		})
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "   ", want: 0},
		{in: "one", want: 1},
		{in: "the quick brown fox", want: 4},
		{in: "line\nbreaks\tand   runs of spaces", want: 6},
	}

	for _, tt := range tests {
		if got := CountWords(tt.in); got != tt.want {
			t.Fatalf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsValidExportFormat(t *testing.T) {
	for _, format := range []string{"txt", "pdf", "epub", "docx"} {
		assert.True(t, IsValidExportFormat(format), format)
	}
	for _, format := range []string{"", "mobi", "PDF", "doc"} {
		assert.False(t, IsValidExportFormat(format), format)
	}
}

func TestIsValidCreditTxType(t *testing.T) {
	for _, txType := range []string{CREDIT_TX_GRANT, CREDIT_TX_DEBIT, CREDIT_TX_REFUND} {
		assert.True(t, IsValidCreditTxType(txType), txType)
	}
	assert.False(t, IsValidCreditTxType("chargeback"))
	assert.False(t, IsValidCreditTxType(""))
}
