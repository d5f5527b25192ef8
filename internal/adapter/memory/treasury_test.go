package memory

import (
	"context"
	"testing"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/pkg/errors"
)

func TestTreasuryCollectDisburse(t *testing.T) {
	treasury := NewTreasury(WithTreasuryBalance("alice", 100))
	ctx := context.Background()

	if err := treasury.Collect(ctx, "op-1", "alice", 60); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(60), held; e != g {
		t.Errorf("held: expected %d, got %d", e, g)
	}

	if e, g := model.Amount(40), treasury.Balance("alice"); e != g {
		t.Errorf("alice balance: expected %d, got %d", e, g)
	}

	err = treasury.Disburse(ctx, "op-2",
		port.Transfer{To: "bob", Amount: 57},
		port.Transfer{To: "owner", Amount: 3},
	)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(57), treasury.Balance("bob"); e != g {
		t.Errorf("bob balance: expected %d, got %d", e, g)
	}

	if e, g := model.Amount(3), treasury.Balance("owner"); e != g {
		t.Errorf("owner balance: expected %d, got %d", e, g)
	}

	held, err = treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if held != 0 {
		t.Errorf("held after disburse: expected 0, got %d", held)
	}
}

func TestTreasuryDisburseInsufficientEscrow(t *testing.T) {
	treasury := NewTreasury()
	ctx := context.Background()

	if err := treasury.Collect(ctx, "op-1", "alice", 10); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	err := treasury.Disburse(ctx, "op-2", port.Transfer{To: "bob", Amount: 11})
	if !errors.Is(err, model.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// Nothing moved
	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(10), held; e != g {
		t.Errorf("held: expected %d, got %d", e, g)
	}

	if treasury.Balance("bob") != 0 {
		t.Errorf("bob balance should be untouched")
	}
}

func TestTreasuryDisburseBatchIsAtomic(t *testing.T) {
	treasury := NewTreasury(WithTreasuryRejectFunc(func(op string, account model.UserID, amount model.Amount) error {
		if account == "owner" {
			return errors.New("owner account frozen")
		}
		return nil
	}))
	ctx := context.Background()

	if err := treasury.Collect(ctx, "op-1", "alice", 100); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// The second transfer of the batch is rejected: the first must not apply.
	err := treasury.Disburse(ctx, "op-2",
		port.Transfer{To: "bob", Amount: 95},
		port.Transfer{To: "owner", Amount: 5},
	)
	if !errors.Is(err, model.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	if treasury.Balance("bob") != 0 {
		t.Errorf("bob balance should be untouched")
	}

	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(100), held; e != g {
		t.Errorf("held: expected %d, got %d", e, g)
	}
}

func TestTreasuryTransfersApplyOncePerRef(t *testing.T) {
	treasury := NewTreasury()
	ctx := context.Background()

	// A replayed transaction re-issues its transfers under the same ref: only
	// the first application moves value.
	for i := 0; i < 3; i++ {
		if err := treasury.Collect(ctx, "op-1", "alice", 60); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(60), held; e != g {
		t.Errorf("held: expected %d, got %d", e, g)
	}

	if e, g := model.Amount(-60), treasury.Balance("alice"); e != g {
		t.Errorf("alice balance: expected %d, got %d", e, g)
	}

	for i := 0; i < 3; i++ {
		if err := treasury.Disburse(ctx, "op-2", port.Transfer{To: "bob", Amount: 60}); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if e, g := model.Amount(60), treasury.Balance("bob"); e != g {
		t.Errorf("bob balance: expected %d, got %d", e, g)
	}
}

func TestTreasuryRevert(t *testing.T) {
	treasury := NewTreasury()
	ctx := context.Background()

	if err := treasury.Collect(ctx, "op-1", "alice", 60); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := treasury.Disburse(ctx, "op-2", port.Transfer{To: "bob", Amount: 25}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := treasury.Revert(ctx, "op-2"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(0), treasury.Balance("bob"); e != g {
		t.Errorf("bob balance after revert: expected %d, got %d", e, g)
	}

	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(60), held; e != g {
		t.Errorf("held after revert: expected %d, got %d", e, g)
	}

	// Reverting twice, or reverting a ref that never applied, changes nothing.
	if err := treasury.Revert(ctx, "op-2"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := treasury.Revert(ctx, "unknown"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	held, err = treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(60), held; e != g {
		t.Errorf("held: expected %d, got %d", e, g)
	}

	if err := treasury.Revert(ctx, "op-1"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(0), treasury.Balance("alice"); e != g {
		t.Errorf("alice balance after revert: expected %d, got %d", e, g)
	}
}

func TestTreasuryCollectRejected(t *testing.T) {
	treasury := NewTreasury(WithTreasuryRejectFunc(func(op string, account model.UserID, amount model.Amount) error {
		if op == "collect" {
			return errors.New("payer unknown")
		}
		return nil
	}))
	ctx := context.Background()

	err := treasury.Collect(ctx, "op-1", "alice", 10)
	if !errors.Is(err, model.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	held, err := treasury.Held(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if held != 0 {
		t.Errorf("held after rejected collect: expected 0, got %d", held)
	}
}
