package memory

import (
	"context"
	"sync"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/pkg/errors"
)

// RejectFunc lets tests and hosting environments veto a transfer before it is
// applied. op is "collect" or "disburse", account the counterparty.
type RejectFunc func(op string, account model.UserID, amount model.Amount) error

type TreasuryOptions struct {
	Balances map[model.UserID]model.Amount
	Reject   RejectFunc
}

type TreasuryOptionFunc func(opts *TreasuryOptions)

func WithTreasuryBalance(account model.UserID, amount model.Amount) TreasuryOptionFunc {
	return func(opts *TreasuryOptions) {
		opts.Balances[account] = amount
	}
}

func WithTreasuryRejectFunc(fn RejectFunc) TreasuryOptionFunc {
	return func(opts *TreasuryOptions) {
		opts.Reject = fn
	}
}

func NewTreasuryOptions(funcs ...TreasuryOptionFunc) *TreasuryOptions {
	opts := &TreasuryOptions{
		Balances: map[model.UserID]model.Amount{},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Treasury is an in-process ledger of account balances plus the registry's
// own escrow balance. Accounts may go negative on Collect: vouching for the
// payer is the hosting environment's concern, not the registry's.
type Treasury struct {
	mutex    sync.Mutex
	balances map[model.UserID]model.Amount
	held     model.Amount
	applied  map[string]func()
	reject   RejectFunc
}

// Collect implements port.Treasury.
func (t *Treasury) Collect(ctx context.Context, ref string, from model.UserID, amount model.Amount) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	// Already applied under this ref: the surrounding transaction is being
	// replayed.
	if _, exists := t.applied[ref]; exists {
		return nil
	}

	if t.reject != nil {
		if err := t.reject("collect", from, amount); err != nil {
			return errors.Wrap(model.ErrTransferFailed, err.Error())
		}
	}

	t.balances[from] -= amount
	t.held += amount

	t.applied[ref] = func() {
		t.balances[from] += amount
		t.held -= amount
	}

	return nil
}

// Disburse implements port.Treasury. The batch is checked in full before any
// balance moves, so a rejected transfer leaves the escrow untouched.
func (t *Treasury) Disburse(ctx context.Context, ref string, transfers ...port.Transfer) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.applied[ref]; exists {
		return nil
	}

	var total model.Amount
	for _, transfer := range transfers {
		if t.reject != nil {
			if err := t.reject("disburse", transfer.To, transfer.Amount); err != nil {
				return errors.Wrap(model.ErrTransferFailed, err.Error())
			}
		}

		total += transfer.Amount
	}

	if total > t.held {
		return errors.Wrap(model.ErrTransferFailed, "escrow balance is insufficient")
	}

	t.held -= total
	for _, transfer := range transfers {
		t.balances[transfer.To] += transfer.Amount
	}

	t.applied[ref] = func() {
		t.held += total
		for _, transfer := range transfers {
			t.balances[transfer.To] -= transfer.Amount
		}
	}

	return nil
}

// Revert implements port.Treasury. Reverting a ref that never applied, or that
// was already reverted, is a no-op.
func (t *Treasury) Revert(ctx context.Context, ref string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	undo, exists := t.applied[ref]
	if !exists {
		return nil
	}

	delete(t.applied, ref)
	undo()

	return nil
}

// Held implements port.Treasury.
func (t *Treasury) Held(ctx context.Context) (model.Amount, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.held, nil
}

// Balance returns an account's current balance. Test helper.
func (t *Treasury) Balance(account model.UserID) model.Amount {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.balances[account]
}

func NewTreasury(funcs ...TreasuryOptionFunc) *Treasury {
	opts := NewTreasuryOptions(funcs...)
	return &Treasury{
		balances: opts.Balances,
		applied:  map[string]func(){},
		reject:   opts.Reject,
	}
}

var _ port.Treasury = &Treasury{}
