package port

import (
	"context"

	"github.com/bornholm/taskmarket/internal/core/model"
)

type QueryTasksOptions struct {
	Page   *int
	Limit  *int
	Status *model.Status
	Client *model.UserID
}

type QueryLedgerOptions struct {
	Page   *int
	Limit  *int
	TaskID *model.TaskID
}

// TaskTx is the mutation surface available inside a TaskStore.Update
// transaction. Either every call made through it takes effect, or none does.
type TaskTx interface {
	// InsertTask persists a freshly created task, allocating the next
	// sequential task id and assigning it to the task.
	InsertTask(task *model.Task) error

	// GetTaskForUpdate returns the current state of a task, or ErrNotFound.
	GetTaskForUpdate(id model.TaskID) (*model.Task, error)

	// SaveTask persists the new state of an existing task.
	SaveTask(task *model.Task) error

	// AppendUserTask appends the task id to the user's append-only task list.
	AppendUserTask(user model.UserID, id model.TaskID) error

	// IncrementCompletedCount increments the user's completed tasks counter.
	IncrementCompletedCount(user model.UserID) error

	// AppendLedgerEntry records an escrow movement.
	AppendLedgerEntry(entry *model.LedgerEntry) error
}

// TaskStore persists the registry state. Update is the single mutation
// boundary: the whole callback executes as one serializable transaction, so
// no reader may observe a partially applied operation.
type TaskStore interface {
	// GetTaskByID finds a task by its id, or returns ErrNotFound
	GetTaskByID(ctx context.Context, id model.TaskID) (*model.Task, error)

	// QueryTasks returns a page of tasks and the total count of matches
	QueryTasks(ctx context.Context, opts QueryTasksOptions) ([]*model.Task, int64, error)

	// CountTasks returns the total number of tasks ever created
	CountTasks(ctx context.Context) (int64, error)

	// GetUserTaskIDs returns the ordered list of task ids the user has ever
	// been client or freelancer for
	GetUserTaskIDs(ctx context.Context, user model.UserID) ([]model.TaskID, error)

	// CompletedTasksCount returns the user's completed tasks counter
	CompletedTasksCount(ctx context.Context, user model.UserID) (int64, error)

	// QueryLedger returns a page of escrow ledger entries
	QueryLedger(ctx context.Context, opts QueryLedgerOptions) ([]*model.LedgerEntry, error)

	// Update runs fn inside a transaction and commits its effects atomically
	Update(ctx context.Context, fn func(ctx context.Context, tx TaskTx) error) error
}
