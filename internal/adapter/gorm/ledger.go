package gorm

import (
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
)

type LedgerEntry struct {
	ID string `gorm:"primarykey"`

	CreatedAt time.Time

	Type string `gorm:"index;not null"`

	// TaskID is zero for registry-scoped movements
	TaskID int64 `gorm:"index"`

	Account string `gorm:"index;not null"`
	Amount  int64  `gorm:"not null"`
}

func fromLedgerEntry(e *model.LedgerEntry) *LedgerEntry {
	return &LedgerEntry{
		ID:        string(e.ID),
		CreatedAt: e.CreatedAt,
		Type:      string(e.Type),
		TaskID:    int64(e.TaskID),
		Account:   string(e.Account),
		Amount:    int64(e.Amount),
	}
}

func toLedgerEntry(e *LedgerEntry) *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:        model.LedgerEntryID(e.ID),
		Type:      model.LedgerEntryType(e.Type),
		TaskID:    model.TaskID(e.TaskID),
		Account:   model.UserID(e.Account),
		Amount:    model.Amount(e.Amount),
		CreatedAt: e.CreatedAt,
	}
}
