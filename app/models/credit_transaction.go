package models

import (
	"time"
)

const (
	CREDIT_TX_GRANT  = "grant"
	CREDIT_TX_DEBIT  = "debit"
	CREDIT_TX_REFUND = "refund"
)

// CreditTransaction is the append-only audit trail of the credit ledger.
// Rows are written in the same database transaction as the balance
// mutation they record, so trail and balance cannot drift apart.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	Amount       uint      `gorm:"not null" json:"amount"`
	BalanceAfter uint      `gorm:"not null" json:"balance_after"`
	Reason       string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsValidCreditTxType reports whether t is a known transaction type.
func IsValidCreditTxType(t string) bool {
	switch t {
	case CREDIT_TX_GRANT, CREDIT_TX_DEBIT, CREDIT_TX_REFUND:
		return true
	default:
		return false
	}
}
