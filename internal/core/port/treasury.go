package port

import (
	"context"

	"github.com/bornholm/taskmarket/internal/core/model"
)

type Transfer struct {
	To     model.UserID
	Amount model.Amount
}

// Treasury is the value-transfer primitive supplied by the hosting
// environment. The registry is the exclusive owner of the escrow balance
// between Collect and Disburse. Any returned error aborts the operation that
// triggered the transfer.
//
// Transfers are keyed by a caller-chosen ref, one per operation: applying the
// same ref twice is a no-op, so a store transaction replayed after a transient
// commit failure cannot move value twice, and Revert undoes whatever was
// applied under a ref when the transaction ultimately aborts.
type Treasury interface {
	// Collect moves amount from the given account into the registry's escrow
	// balance.
	Collect(ctx context.Context, ref string, from model.UserID, amount model.Amount) error

	// Disburse moves value out of the registry's escrow balance. The batch is
	// atomic: either every transfer is applied or none is.
	Disburse(ctx context.Context, ref string, transfers ...Transfer) error

	// Revert undoes the transfers applied under ref, if any.
	Revert(ctx context.Context, ref string) error

	// Held returns the registry's current escrow balance.
	Held(ctx context.Context) (model.Amount, error)
}
