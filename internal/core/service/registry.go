package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/bornholm/taskmarket/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

type RegistryOptions struct {
	FeePercentage int64
	Now           func() time.Time
}

type RegistryOptionFunc func(opts *RegistryOptions)

func WithRegistryFeePercentage(percentage int64) RegistryOptionFunc {
	return func(opts *RegistryOptions) {
		opts.FeePercentage = percentage
	}
}

func WithRegistryNow(now func() time.Time) RegistryOptionFunc {
	return func(opts *RegistryOptions) {
		opts.Now = now
	}
}

func NewRegistryOptions(funcs ...RegistryOptionFunc) *RegistryOptions {
	opts := &RegistryOptions{
		FeePercentage: 0,
		Now:           time.Now,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Registry owns the set of tasks and enforces the escrowed lifecycle state
// machine. Every mutating operation runs as a single store transaction with
// the treasury transfer as its last step, so a failed transfer aborts the
// whole operation: a call either fully applies or fully rejects.
//
// The store may replay the transaction callback on transient commit failures.
// Treasury transfers are therefore keyed by a per-operation ref, applied at
// most once across replays, and reverted when the transaction ultimately
// fails after the transfer went through.
type Registry struct {
	store    port.TaskStore
	treasury port.Treasury
	notifier port.Notifier
	owner    model.UserID

	feeMutex      sync.RWMutex
	feePercentage int64

	now func() time.Time
}

func NewRegistry(store port.TaskStore, treasury port.Treasury, notifier port.Notifier, owner model.UserID, funcs ...RegistryOptionFunc) (*Registry, error) {
	opts := NewRegistryOptions(funcs...)

	if opts.FeePercentage < 0 || opts.FeePercentage > model.MaxFeePercentage {
		return nil, errors.Wrapf(model.ErrInvalidInput, "fee percentage %d is out of bounds [0,%d]", opts.FeePercentage, model.MaxFeePercentage)
	}

	if owner == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "owner must not be empty")
	}

	return &Registry{
		store:         store,
		treasury:      treasury,
		notifier:      notifier,
		owner:         owner,
		feePercentage: opts.FeePercentage,
		now:           opts.Now,
	}, nil
}

func (r *Registry) Owner() model.UserID {
	return r.owner
}

// FeePercentage returns the platform fee percentage currently in effect.
func (r *Registry) FeePercentage() int64 {
	r.feeMutex.RLock()
	defer r.feeMutex.RUnlock()

	return r.feePercentage
}

// CreateTask escrows the reward and registers a new open task owned by the
// caller.
func (r *Registry) CreateTask(ctx context.Context, caller model.UserID, title, description string, reward model.Amount, deadline time.Time) (*model.Task, error) {
	now := r.now()

	task, err := model.NewTask(title, description, reward, caller, deadline, now)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	ref := xid.New().String()

	var created *model.Task

	err = r.store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		// The callback may be replayed after a rolled back attempt: insert a
		// fresh clone so the id assignment starts over each time.
		t := task.Clone()

		if err := tx.InsertTask(t); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendUserTask(caller, t.ID()); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryEscrowLock, t.ID(), caller, reward, now)); err != nil {
			return errors.WithStack(err)
		}

		// Escrow last: a failed collect aborts the whole transaction.
		if err := r.treasury.Collect(ctx, ref, caller, reward); err != nil {
			return errors.WithStack(err)
		}

		created = t

		return nil
	})
	if err != nil {
		r.revertTransfers(ctx, ref)
		return nil, errors.WithStack(err)
	}

	task = created

	metrics.TotalCreatedTasks.Add(1)
	metrics.TotalEscrowedAmount.Add(float64(reward))
	r.updateHeldGauge(ctx)

	r.notifier.Notify(ctx, model.TaskCreated{
		TaskID: task.ID(),
		Client: caller,
		Title:  title,
		Reward: reward,
	})

	return task, nil
}

// AcceptTask assigns an open task to the caller.
func (r *Registry) AcceptTask(ctx context.Context, caller model.UserID, id model.TaskID) (*model.Task, error) {
	now := r.now()

	var task *model.Task

	err := r.store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		t, err := tx.GetTaskForUpdate(id)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := t.Accept(caller, now); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.SaveTask(t); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendUserTask(caller, id); err != nil {
			return errors.WithStack(err)
		}

		task = t

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	metrics.TotalAssignedTasks.Add(1)

	r.notifier.Notify(ctx, model.TaskAssigned{
		TaskID:     id,
		Freelancer: caller,
	})

	return task, nil
}

// CompleteTask records one side of the dual confirmation protocol. When the
// second flag flips, the task completes and the payout is released: reward
// minus fee to the freelancer, the fee to the owner, both completion counters
// incremented, fee rate read at payout time.
func (r *Registry) CompleteTask(ctx context.Context, caller model.UserID, id model.TaskID) (*model.Task, error) {
	now := r.now()

	ref := xid.New().String()

	var (
		task      *model.Task
		completed bool
		payout    model.Amount
	)

	err := r.store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		t, err := tx.GetTaskForUpdate(id)
		if err != nil {
			return errors.WithStack(err)
		}

		completed, err = t.Confirm(caller, now)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := tx.SaveTask(t); err != nil {
			return errors.WithStack(err)
		}

		task = t

		if !completed {
			return nil
		}

		fee := t.Fee(r.FeePercentage())
		payout = t.Reward() - fee

		if err := tx.IncrementCompletedCount(t.Freelancer()); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.IncrementCompletedCount(t.Client()); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryEscrowRelease, id, t.Freelancer(), payout, now)); err != nil {
			return errors.WithStack(err)
		}

		if fee > 0 {
			if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryPlatformFee, id, r.owner, fee, now)); err != nil {
				return errors.WithStack(err)
			}
		}

		transfers := []port.Transfer{{To: t.Freelancer(), Amount: payout}}
		if fee > 0 {
			transfers = append(transfers, port.Transfer{To: r.owner, Amount: fee})
		}

		// Payout last: a failed transfer aborts the completion, leaving the
		// task assigned and the escrow intact.
		if err := r.treasury.Disburse(ctx, ref, transfers...); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		r.revertTransfers(ctx, ref)
		return nil, errors.WithStack(err)
	}

	if completed {
		fee := task.Reward() - payout

		metrics.TotalCompletedTasks.Add(1)
		metrics.TotalPaymentsReleased.Add(float64(payout))
		metrics.TotalFeesCollected.Add(float64(fee))
		r.updateHeldGauge(ctx)

		r.notifier.Notify(ctx, model.TaskCompleted{
			TaskID:     id,
			Freelancer: task.Freelancer(),
			Client:     task.Client(),
		})

		r.notifier.Notify(ctx, model.PaymentReleased{
			TaskID:     id,
			Freelancer: task.Freelancer(),
			Amount:     payout,
		})
	}

	return task, nil
}

// CancelTask cancels a still-open task and refunds the full reward to the
// client. No fee is ever taken on a refund.
func (r *Registry) CancelTask(ctx context.Context, caller model.UserID, id model.TaskID) (*model.Task, error) {
	now := r.now()

	ref := xid.New().String()

	var task *model.Task

	err := r.store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		t, err := tx.GetTaskForUpdate(id)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := t.Cancel(caller, now); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.SaveTask(t); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryRefund, id, t.Client(), t.Reward(), now)); err != nil {
			return errors.WithStack(err)
		}

		if err := r.treasury.Disburse(ctx, ref, port.Transfer{To: t.Client(), Amount: t.Reward()}); err != nil {
			return errors.WithStack(err)
		}

		task = t

		return nil
	})
	if err != nil {
		r.revertTransfers(ctx, ref)
		return nil, errors.WithStack(err)
	}

	metrics.TotalCancelledTasks.Add(1)
	metrics.TotalRefundedAmount.Add(float64(task.Reward()))
	r.updateHeldGauge(ctx)

	r.notifier.Notify(ctx, model.TaskCancelled{
		TaskID: id,
		Client: task.Client(),
	})

	return task, nil
}

// GetTask returns the task with the given id, or ErrNotFound.
func (r *Registry) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	task, err := r.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return task, nil
}

// QueryTasks returns a page of tasks with the total count of matches.
func (r *Registry) QueryTasks(ctx context.Context, opts port.QueryTasksOptions) ([]*model.Task, int64, error) {
	tasks, total, err := r.store.QueryTasks(ctx, opts)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return tasks, total, nil
}

// GetUserTasks returns the ordered list of task ids the user has ever been
// client or freelancer for.
func (r *Registry) GetUserTasks(ctx context.Context, user model.UserID) ([]model.TaskID, error) {
	ids, err := r.store.GetUserTaskIDs(ctx, user)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return ids, nil
}

// CompletedTasksCount returns the user's completed tasks counter.
func (r *Registry) CompletedTasksCount(ctx context.Context, user model.UserID) (int64, error) {
	count, err := r.store.CompletedTasksCount(ctx, user)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}

// GetTotalTasks returns the number of tasks ever created.
func (r *Registry) GetTotalTasks(ctx context.Context) (int64, error) {
	total, err := r.store.CountTasks(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// QueryLedger returns a page of escrow ledger entries.
func (r *Registry) QueryLedger(ctx context.Context, opts port.QueryLedgerOptions) ([]*model.LedgerEntry, error) {
	entries, err := r.store.QueryLedger(ctx, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return entries, nil
}

// HeldBalance returns the registry's current escrow balance.
func (r *Registry) HeldBalance(ctx context.Context) (model.Amount, error) {
	held, err := r.treasury.Held(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return held, nil
}

// UpdatePlatformFee sets the fee percentage applied to payouts from now on.
// Already-escrowed tasks are paid out with the rate in effect at payout time.
func (r *Registry) UpdatePlatformFee(ctx context.Context, caller model.UserID, percentage int64) error {
	if caller != r.owner {
		return errors.Wrap(model.ErrUnauthorized, "only the owner can update the platform fee")
	}

	if percentage < 0 || percentage > model.MaxFeePercentage {
		return errors.Wrapf(model.ErrInvalidInput, "fee percentage %d is out of bounds [0,%d]", percentage, model.MaxFeePercentage)
	}

	r.feeMutex.Lock()
	r.feePercentage = percentage
	r.feeMutex.Unlock()

	slog.InfoContext(ctx, "platform fee updated", slog.Int64("percentage", percentage))

	return nil
}

// EmergencyWithdraw sweeps the registry's entire held balance, across all
// tasks, to the owner. Funds escrowed for live tasks are not spared: this is
// the deliberately unrestricted escape hatch of the original design, and
// payouts attempted afterwards will fail with a transfer error.
func (r *Registry) EmergencyWithdraw(ctx context.Context, caller model.UserID) (model.Amount, error) {
	if caller != r.owner {
		return 0, errors.Wrap(model.ErrUnauthorized, "only the owner can withdraw the held balance")
	}

	now := r.now()

	held, err := r.treasury.Held(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	if held == 0 {
		return 0, nil
	}

	ref := xid.New().String()

	err = r.store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryEmergencyWithdraw, 0, r.owner, held, now)); err != nil {
			return errors.WithStack(err)
		}

		if err := r.treasury.Disburse(ctx, ref, port.Transfer{To: r.owner, Amount: held}); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		r.revertTransfers(ctx, ref)
		return 0, errors.WithStack(err)
	}

	slog.WarnContext(ctx, "emergency withdrawal executed", slog.Int64("amount", int64(held)))

	r.updateHeldGauge(ctx)

	return held, nil
}

// revertTransfers undoes the treasury transfers of an operation whose store
// transaction failed after they were applied, typically on a commit error.
func (r *Registry) revertTransfers(ctx context.Context, ref string) {
	if err := r.treasury.Revert(ctx, ref); err != nil {
		slog.ErrorContext(ctx, "could not revert treasury transfers", slog.String("ref", ref), slog.Any("error", errors.WithStack(err)))
	}
}

func (r *Registry) updateHeldGauge(ctx context.Context) {
	held, err := r.treasury.Held(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "could not read held balance", slog.Any("error", errors.WithStack(err)))
		return
	}

	metrics.EscrowHeld.Set(float64(held))
}
