package gorm

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskStore struct {
	getDatabase func(ctx context.Context) (*gorm.DB, error)
}

// GetTaskByID implements port.TaskStore.
func (s *TaskStore) GetTaskByID(ctx context.Context, id model.TaskID) (*model.Task, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var task Task

	if err := db.First(&task, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(port.ErrNotFound)
		}

		return nil, errors.WithStack(err)
	}

	return toTask(&task), nil
}

// QueryTasks implements port.TaskStore.
func (s *TaskStore) QueryTasks(ctx context.Context, opts port.QueryTasksOptions) ([]*model.Task, int64, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	query := db.Model(&Task{})

	if opts.Status != nil {
		query = query.Where("status = ?", string(*opts.Status))
	}

	if opts.Client != nil {
		query = query.Where("client = ?", string(*opts.Client))
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	limit := 10
	if opts.Limit != nil {
		limit = *opts.Limit
	}

	page := 0
	if opts.Page != nil {
		page = *opts.Page
	}

	var tasks []*Task

	if err := query.Order("id asc").Limit(limit).Offset(page * limit).Find(&tasks).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	results := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, toTask(t))
	}

	return results, total, nil
}

// CountTasks implements port.TaskStore. Tasks are never deleted, so the row
// count is also the number of tasks ever created.
func (s *TaskStore) CountTasks(ctx context.Context) (int64, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var total int64

	if err := db.Model(&Task{}).Count(&total).Error; err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// GetUserTaskIDs implements port.TaskStore.
func (s *TaskStore) GetUserTaskIDs(ctx context.Context, user model.UserID) ([]model.TaskID, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var rows []*UserTask

	if err := db.Where("user_id = ?", string(user)).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	ids := make([]model.TaskID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, model.TaskID(row.TaskID))
	}

	return ids, nil
}

// CompletedTasksCount implements port.TaskStore.
func (s *TaskStore) CompletedTasksCount(ctx context.Context, user model.UserID) (int64, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var counter CompletionCount

	if err := db.First(&counter, "user_id = ?", string(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, errors.WithStack(err)
	}

	return counter.Count, nil
}

// QueryLedger implements port.TaskStore.
func (s *TaskStore) QueryLedger(ctx context.Context, opts port.QueryLedgerOptions) ([]*model.LedgerEntry, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	query := db.Model(&LedgerEntry{})

	if opts.TaskID != nil {
		query = query.Where("task_id = ?", int64(*opts.TaskID))
	}

	if opts.Limit != nil {
		limit := *opts.Limit
		query = query.Limit(limit)

		if opts.Page != nil {
			query = query.Offset(*opts.Page * limit)
		}
	}

	var rows []*LedgerEntry

	if err := query.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	entries := make([]*model.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toLedgerEntry(row))
	}

	return entries, nil
}

// Update implements port.TaskStore. The callback runs inside a database
// transaction, retried on transient sqlite contention.
func (s *TaskStore) Update(ctx context.Context, fn func(ctx context.Context, tx port.TaskTx) error) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := fn(ctx, &taskTx{db: db}); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

type taskTx struct {
	db *gorm.DB
}

// InsertTask implements port.TaskTx.
func (tx *taskTx) InsertTask(task *model.Task) error {
	entity := fromTask(task)

	if res := tx.db.Create(entity); res.Error != nil {
		return errors.WithStack(res.Error)
	}

	if err := task.SetID(model.TaskID(entity.ID)); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetTaskForUpdate implements port.TaskTx.
func (tx *taskTx) GetTaskForUpdate(id model.TaskID) (*model.Task, error) {
	var task Task

	if err := tx.db.First(&task, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(port.ErrNotFound)
		}

		return nil, errors.WithStack(err)
	}

	return toTask(&task), nil
}

// SaveTask implements port.TaskTx.
func (tx *taskTx) SaveTask(task *model.Task) error {
	entity := fromTask(task)

	res := tx.db.Model(&Task{}).
		Where("id = ?", entity.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(entity)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}

	if res.RowsAffected == 0 {
		return errors.WithStack(port.ErrNotFound)
	}

	return nil
}

// AppendUserTask implements port.TaskTx.
func (tx *taskTx) AppendUserTask(user model.UserID, id model.TaskID) error {
	row := &UserTask{
		UserID: string(user),
		TaskID: int64(id),
	}

	if res := tx.db.Create(row); res.Error != nil {
		return errors.WithStack(res.Error)
	}

	return nil
}

// IncrementCompletedCount implements port.TaskTx.
func (tx *taskTx) IncrementCompletedCount(user model.UserID) error {
	err := tx.db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("count + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&CompletionCount{UserID: string(user), Count: 1}).Error
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// AppendLedgerEntry implements port.TaskTx.
func (tx *taskTx) AppendLedgerEntry(entry *model.LedgerEntry) error {
	if res := tx.db.Create(fromLedgerEntry(entry)); res.Error != nil {
		return errors.WithStack(res.Error)
	}

	return nil
}

func (s *TaskStore) withRetry(ctx context.Context, fn func(ctx context.Context, db *gorm.DB) error, codes ...sqlite3.ErrorCode) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	backoff := 500 * time.Millisecond
	maxRetries := 10
	retries := 0

	for {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := fn(ctx, tx); err != nil {
				return errors.WithStack(err)
			}

			return nil
		})
		if err != nil {
			if retries >= maxRetries {
				return errors.WithStack(err)
			}

			var sqliteErr *sqlite3.Error
			if errors.As(err, &sqliteErr) {
				if !slices.Contains(codes, sqliteErr.Code()) {
					return errors.WithStack(err)
				}

				slog.DebugContext(ctx, "transaction failed, will retry", slog.Int("retries", retries), slog.Duration("backoff", backoff), slog.Any("error", errors.WithStack(err)))

				retries++
				time.Sleep(backoff)
				backoff *= 2
				continue
			}

			return errors.WithStack(err)
		}

		return nil
	}
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{
		getDatabase: createGetDatabase(db, &Task{}, &UserTask{}, &CompletionCount{}, &LedgerEntry{}),
	}
}

func createGetDatabase(db *gorm.DB, models ...any) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			if err := db.AutoMigrate(models...); err != nil {
				migrateErr = errors.WithStack(err)
				return
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db, nil
	}
}

var _ port.TaskStore = &TaskStore{}
var _ port.TaskTx = &taskTx{}
