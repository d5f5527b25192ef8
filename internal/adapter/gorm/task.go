package gorm

import (
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
)

type Task struct {
	ID int64 `gorm:"primarykey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Title       string `gorm:"not null"`
	Description string

	Reward int64 `gorm:"not null"`

	Client     string `gorm:"index;not null"`
	Freelancer string `gorm:"index"`

	Status   string `gorm:"index;not null"`
	Deadline time.Time

	FreelancerSubmitted bool
	ClientApproved      bool
}

type UserTask struct {
	ID uint `gorm:"primarykey"`

	CreatedAt time.Time

	UserID string `gorm:"index;not null"`
	TaskID int64  `gorm:"not null"`
}

type CompletionCount struct {
	UserID string `gorm:"primaryKey;autoIncrement:false"`

	UpdatedAt time.Time

	Count int64
}

func fromTask(t *model.Task) *Task {
	return &Task{
		ID:                  int64(t.ID()),
		CreatedAt:           t.CreatedAt(),
		UpdatedAt:           t.UpdatedAt(),
		Title:               t.Title(),
		Description:         t.Description(),
		Reward:              int64(t.Reward()),
		Client:              string(t.Client()),
		Freelancer:          string(t.Freelancer()),
		Status:              string(t.Status()),
		Deadline:            t.Deadline(),
		FreelancerSubmitted: t.FreelancerSubmitted(),
		ClientApproved:      t.ClientApproved(),
	}
}

func toTask(t *Task) *model.Task {
	return model.RestoreTask(
		model.TaskID(t.ID),
		t.Title,
		t.Description,
		model.Amount(t.Reward),
		model.UserID(t.Client),
		model.UserID(t.Freelancer),
		model.Status(t.Status),
		t.Deadline,
		t.FreelancerSubmitted,
		t.ClientApproved,
		t.CreatedAt,
		t.UpdatedAt,
	)
}
