package gorm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "taskmarket.sqlite")

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	internalDB, err := db.DB()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	internalDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=5000").Error; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return NewTaskStore(db)
}

func insertTask(t *testing.T, store *TaskStore, client model.UserID, reward model.Amount) *model.Task {
	t.Helper()

	now := time.Now()

	task, err := model.NewTask("translate landing page", "fr -> en", reward, client, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	err = store.Update(context.Background(), func(ctx context.Context, tx port.TaskTx) error {
		if err := tx.InsertTask(task); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return task
}

func TestTaskStoreSequentialIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := insertTask(t, store, "alice", 10)
	second := insertTask(t, store, "alice", 20)

	if e, g := model.TaskID(1), first.ID(); e != g {
		t.Errorf("first id: expected %d, got %d", e, g)
	}

	if e, g := model.TaskID(2), second.ID(); e != g {
		t.Errorf("second id: expected %d, got %d", e, g)
	}

	total, err := store.CountTasks(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(2), total; e != g {
		t.Errorf("total tasks: expected %d, got %d", e, g)
	}
}

func TestTaskStoreRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()

	task, err := model.NewTask("task", "", 10, "alice", now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	boom := errors.New("boom")

	err = store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		if err := tx.InsertTask(task); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendUserTask("alice", task.ID()); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.IncrementCompletedCount("alice"); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryEscrowLock, task.ID(), "alice", 10, now)); err != nil {
			return errors.WithStack(err)
		}

		return errors.WithStack(boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	// None of the staged writes survived the rollback
	if _, err := store.GetTaskByID(ctx, task.ID()); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("task after rollback: expected ErrNotFound, got %v", err)
	}

	total, err := store.CountTasks(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if total != 0 {
		t.Errorf("total tasks after rollback: expected 0, got %d", total)
	}

	ids, err := store.GetUserTaskIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(ids) != 0 {
		t.Errorf("user tasks after rollback: expected none, got %v", ids)
	}

	count, err := store.CompletedTasksCount(ctx, "alice")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if count != 0 {
		t.Errorf("completed count after rollback: expected 0, got %d", count)
	}

	entries, err := store.QueryLedger(ctx, port.QueryLedgerOptions{})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(entries) != 0 {
		t.Errorf("ledger after rollback: expected no entries, got %d", len(entries))
	}
}

func TestTaskStoreSaveTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := insertTask(t, store, "alice", 10)
	now := time.Now()

	err := store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		current, err := tx.GetTaskForUpdate(task.ID())
		if err != nil {
			return errors.WithStack(err)
		}

		if err := current.Accept("bob", now); err != nil {
			return errors.WithStack(err)
		}

		if _, err := current.Confirm("bob", now); err != nil {
			return errors.WithStack(err)
		}

		if err := tx.SaveTask(current); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	reloaded, err := store.GetTaskByID(ctx, task.ID())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.StatusAssigned, reloaded.Status(); e != g {
		t.Errorf("status: expected %s, got %s", e, g)
	}

	if e, g := model.UserID("bob"), reloaded.Freelancer(); e != g {
		t.Errorf("freelancer: expected %s, got %s", e, g)
	}

	if !reloaded.FreelancerSubmitted() {
		t.Errorf("freelancerSubmitted should have been persisted")
	}

	if reloaded.ClientApproved() {
		t.Errorf("clientApproved should still be false")
	}
}

func TestTaskStoreSaveUnknownTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	unknown := model.RestoreTask(42, "task", "", 10, "alice", "", model.StatusOpen, time.Now().Add(time.Hour), false, false, time.Now(), time.Now())

	err := store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
		return tx.SaveTask(unknown)
	})
	if !errors.Is(err, port.ErrNotFound) {
		t.Errorf("saving unknown task: expected ErrNotFound, got %v", err)
	}
}

func TestTaskStoreIncrementCompletedCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
			return tx.IncrementCompletedCount("bob")
		})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	count, err := store.CompletedTasksCount(ctx, "bob")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(2), count; e != g {
		t.Errorf("completed count: expected %d, got %d", e, g)
	}

	// Unknown users have no counter row
	count, err = store.CompletedTasksCount(ctx, "stranger")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if count != 0 {
		t.Errorf("stranger completed count: expected 0, got %d", count)
	}
}

func TestTaskStoreQueryTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertTask(t, store, "alice", 10)
	insertTask(t, store, "alice", 20)
	insertTask(t, store, "carol", 30)

	client := model.UserID("alice")

	tasks, total, err := store.QueryTasks(ctx, port.QueryTasksOptions{Client: &client})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if total != 2 || len(tasks) != 2 {
		t.Fatalf("alice tasks: expected 2, got %d (total %d)", len(tasks), total)
	}

	limit := 1
	page := 1

	tasks, total, err = store.QueryTasks(ctx, port.QueryTasksOptions{Client: &client, Limit: &limit, Page: &page})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if total != 2 || len(tasks) != 1 {
		t.Fatalf("paged alice tasks: expected 1 of 2, got %d of %d", len(tasks), total)
	}

	if e, g := model.TaskID(2), tasks[0].ID(); e != g {
		t.Errorf("second page task id: expected %d, got %d", e, g)
	}

	status := model.StatusCompleted

	tasks, total, err = store.QueryTasks(ctx, port.QueryTasksOptions{Status: &status})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if total != 0 || len(tasks) != 0 {
		t.Errorf("completed tasks: expected none, got %d (total %d)", len(tasks), total)
	}
}

func TestTaskStoreQueryLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()

	first := insertTask(t, store, "alice", 10)
	second := insertTask(t, store, "alice", 20)

	for _, task := range []*model.Task{first, second} {
		err := store.Update(ctx, func(ctx context.Context, tx port.TaskTx) error {
			return tx.AppendLedgerEntry(model.NewLedgerEntry(model.LedgerEntryEscrowLock, task.ID(), "alice", task.Reward(), now))
		})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	entries, err := store.QueryLedger(ctx, port.QueryLedgerOptions{})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(entries) != 2 {
		t.Fatalf("ledger entries: expected 2, got %d", len(entries))
	}

	taskID := second.ID()

	entries, err = store.QueryLedger(ctx, port.QueryLedgerOptions{TaskID: &taskID})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(entries) != 1 || entries[0].TaskID != taskID {
		t.Fatalf("filtered ledger entries: expected the entry of task %d, got %+v", taskID, entries)
	}
}
