package model

import (
	"time"

	"github.com/rs/xid"
)

type LedgerEntryID string

func NewLedgerEntryID() LedgerEntryID {
	return LedgerEntryID(xid.New().String())
}

type LedgerEntryType string

const (
	LedgerEntryEscrowLock        LedgerEntryType = "escrow_lock"
	LedgerEntryEscrowRelease     LedgerEntryType = "escrow_release"
	LedgerEntryPlatformFee       LedgerEntryType = "platform_fee"
	LedgerEntryRefund            LedgerEntryType = "refund"
	LedgerEntryEmergencyWithdraw LedgerEntryType = "emergency_withdraw"
)

// LedgerEntry is an audit record of a single escrow movement, written in the
// same transaction as the state change that caused it.
type LedgerEntry struct {
	ID        LedgerEntryID   `json:"id"`
	Type      LedgerEntryType `json:"type"`
	TaskID    TaskID          `json:"taskId,omitempty"` // zero for registry-scoped movements
	Account   UserID          `json:"account"`
	Amount    Amount          `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewLedgerEntry(entryType LedgerEntryType, taskID TaskID, account UserID, amount Amount, now time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:        NewLedgerEntryID(),
		Type:      entryType,
		TaskID:    taskID,
		Account:   account,
		Amount:    amount,
		CreatedAt: now,
	}
}
