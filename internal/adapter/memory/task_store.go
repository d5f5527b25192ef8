package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/pkg/errors"
)

// TaskStore keeps the whole registry state behind a single mutex: one global
// sequential consistency domain, matching the execution model the registry
// expects. Mutations are staged by the transaction and only applied when the
// callback succeeds.
type TaskStore struct {
	mutex sync.Mutex

	counter   int64
	tasks     map[model.TaskID]*model.Task
	userTasks map[model.UserID][]model.TaskID
	completed map[model.UserID]int64
	ledger    []*model.LedgerEntry
}

// GetTaskByID implements port.TaskStore.
func (s *TaskStore) GetTaskByID(ctx context.Context, id model.TaskID) (*model.Task, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return task.Clone(), nil
}

// QueryTasks implements port.TaskStore.
func (s *TaskStore) QueryTasks(ctx context.Context, opts port.QueryTasksOptions) ([]*model.Task, int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	matches := make([]*model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if opts.Status != nil && task.Status() != *opts.Status {
			continue
		}

		if opts.Client != nil && task.Client() != *opts.Client {
			continue
		}

		matches = append(matches, task)
	}

	slices.SortFunc(matches, func(t1, t2 *model.Task) int {
		return int(t1.ID() - t2.ID())
	})

	total := int64(len(matches))

	limit := len(matches)
	if opts.Limit != nil {
		limit = *opts.Limit
	}

	offset := 0
	if opts.Page != nil {
		offset = *opts.Page * limit
	}

	if offset > len(matches) {
		offset = len(matches)
	}

	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}

	page := make([]*model.Task, 0, end-offset)
	for _, task := range matches[offset:end] {
		page = append(page, task.Clone())
	}

	return page, total, nil
}

// CountTasks implements port.TaskStore.
func (s *TaskStore) CountTasks(ctx context.Context) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.counter, nil
}

// GetUserTaskIDs implements port.TaskStore.
func (s *TaskStore) GetUserTaskIDs(ctx context.Context, user model.UserID) ([]model.TaskID, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return slices.Clone(s.userTasks[user]), nil
}

// CompletedTasksCount implements port.TaskStore.
func (s *TaskStore) CompletedTasksCount(ctx context.Context, user model.UserID) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.completed[user], nil
}

// QueryLedger implements port.TaskStore.
func (s *TaskStore) QueryLedger(ctx context.Context, opts port.QueryLedgerOptions) ([]*model.LedgerEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries := make([]*model.LedgerEntry, 0, len(s.ledger))
	for _, entry := range s.ledger {
		if opts.TaskID != nil && entry.TaskID != *opts.TaskID {
			continue
		}

		clone := *entry
		entries = append(entries, &clone)
	}

	limit := len(entries)
	if opts.Limit != nil {
		limit = *opts.Limit
	}

	offset := 0
	if opts.Page != nil {
		offset = *opts.Page * limit
	}

	if offset > len(entries) {
		offset = len(entries)
	}

	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}

	return entries[offset:end], nil
}

// Update implements port.TaskStore.
func (s *TaskStore) Update(ctx context.Context, fn func(ctx context.Context, tx port.TaskTx) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx := &taskTx{
		store:     s,
		counter:   s.counter,
		pending:   map[model.TaskID]*model.Task{},
		userTasks: map[model.UserID][]model.TaskID{},
		completed: map[model.UserID]int64{},
	}

	if err := fn(ctx, tx); err != nil {
		return errors.WithStack(err)
	}

	tx.commit()

	return nil
}

type taskTx struct {
	store *TaskStore

	counter   int64
	pending   map[model.TaskID]*model.Task
	userTasks map[model.UserID][]model.TaskID
	completed map[model.UserID]int64
	ledger    []*model.LedgerEntry
}

// InsertTask implements port.TaskTx.
func (tx *taskTx) InsertTask(task *model.Task) error {
	tx.counter++

	if err := task.SetID(model.TaskID(tx.counter)); err != nil {
		return errors.WithStack(err)
	}

	tx.pending[task.ID()] = task.Clone()

	return nil
}

// GetTaskForUpdate implements port.TaskTx.
func (tx *taskTx) GetTaskForUpdate(id model.TaskID) (*model.Task, error) {
	if task, exists := tx.pending[id]; exists {
		return task.Clone(), nil
	}

	task, exists := tx.store.tasks[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return task.Clone(), nil
}

// SaveTask implements port.TaskTx.
func (tx *taskTx) SaveTask(task *model.Task) error {
	if _, exists := tx.pending[task.ID()]; !exists {
		if _, exists := tx.store.tasks[task.ID()]; !exists {
			return errors.WithStack(port.ErrNotFound)
		}
	}

	tx.pending[task.ID()] = task.Clone()

	return nil
}

// AppendUserTask implements port.TaskTx.
func (tx *taskTx) AppendUserTask(user model.UserID, id model.TaskID) error {
	tx.userTasks[user] = append(tx.userTasks[user], id)
	return nil
}

// IncrementCompletedCount implements port.TaskTx.
func (tx *taskTx) IncrementCompletedCount(user model.UserID) error {
	tx.completed[user]++
	return nil
}

// AppendLedgerEntry implements port.TaskTx.
func (tx *taskTx) AppendLedgerEntry(entry *model.LedgerEntry) error {
	clone := *entry
	tx.ledger = append(tx.ledger, &clone)
	return nil
}

func (tx *taskTx) commit() {
	s := tx.store

	s.counter = tx.counter

	for id, task := range tx.pending {
		s.tasks[id] = task
	}

	for user, ids := range tx.userTasks {
		s.userTasks[user] = append(s.userTasks[user], ids...)
	}

	for user, count := range tx.completed {
		s.completed[user] += count
	}

	s.ledger = append(s.ledger, tx.ledger...)
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:     map[model.TaskID]*model.Task{},
		userTasks: map[model.UserID][]model.TaskID{},
		completed: map[model.UserID]int64{},
		ledger:    make([]*model.LedgerEntry, 0),
	}
}

var _ port.TaskStore = &TaskStore{}
var _ port.TaskTx = &taskTx{}
