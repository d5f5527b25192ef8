package model

import (
	"time"

	"github.com/pkg/errors"
)

type TaskID int64

// Amount is a value expressed in the platform's smallest indivisible unit.
type Amount int64

type Status string

const (
	StatusOpen      Status = "open"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	// StatusDisputed is reserved. No transition produces it yet.
	StatusDisputed  Status = "disputed"
	StatusCancelled Status = "cancelled"
)

// MaxFeePercentage bounds the platform fee to [0,10].
const MaxFeePercentage int64 = 10

// Task is the escrowed task aggregate. All lifecycle transitions go through
// its methods so that the invariants hold no matter who drives them:
//
//	open --accept--> assigned --dual confirmation--> completed
//	open --cancel--> cancelled
//
// completed and cancelled are terminal.
type Task struct {
	id          TaskID
	title       string
	description string
	reward      Amount
	client      UserID
	freelancer  UserID
	status      Status
	deadline    time.Time

	freelancerSubmitted bool
	clientApproved      bool

	createdAt time.Time
	updatedAt time.Time
}

func (t *Task) ID() TaskID                { return t.id }
func (t *Task) Title() string             { return t.title }
func (t *Task) Description() string       { return t.description }
func (t *Task) Reward() Amount            { return t.reward }
func (t *Task) Client() UserID            { return t.client }
func (t *Task) Freelancer() UserID        { return t.freelancer }
func (t *Task) Status() Status            { return t.status }
func (t *Task) Deadline() time.Time       { return t.deadline }
func (t *Task) FreelancerSubmitted() bool { return t.freelancerSubmitted }
func (t *Task) ClientApproved() bool      { return t.clientApproved }
func (t *Task) CreatedAt() time.Time      { return t.createdAt }
func (t *Task) UpdatedAt() time.Time      { return t.updatedAt }

// NewTask validates the creation preconditions and returns an open task with
// no freelancer and both confirmation flags cleared. The id is assigned later
// by the store transaction.
func NewTask(title, description string, reward Amount, client UserID, deadline time.Time, now time.Time) (*Task, error) {
	if reward <= 0 {
		return nil, errors.Wrap(ErrInvalidInput, "reward must be greater than zero")
	}

	if !deadline.After(now) {
		return nil, errors.Wrap(ErrInvalidInput, "deadline must be in the future")
	}

	if title == "" {
		return nil, errors.Wrap(ErrInvalidInput, "title must not be empty")
	}

	return &Task{
		title:       title,
		description: description,
		reward:      reward,
		client:      client,
		status:      StatusOpen,
		deadline:    deadline,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// RestoreTask rebuilds a task from persisted state. It performs no validation
// and is meant for store adapters only.
func RestoreTask(id TaskID, title, description string, reward Amount, client, freelancer UserID, status Status, deadline time.Time, freelancerSubmitted, clientApproved bool, createdAt, updatedAt time.Time) *Task {
	return &Task{
		id:                  id,
		title:               title,
		description:         description,
		reward:              reward,
		client:              client,
		freelancer:          freelancer,
		status:              status,
		deadline:            deadline,
		freelancerSubmitted: freelancerSubmitted,
		clientApproved:      clientApproved,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// SetID assigns the sequential identifier allocated by the store. It may only
// be called on a task that does not have one yet.
func (t *Task) SetID(id TaskID) error {
	if t.id != 0 {
		return errors.Wrap(ErrInvalidState, "task already has an id")
	}

	t.id = id

	return nil
}

// Accept assigns the task to the caller. The task must still be open, the
// caller must not be the client and the deadline must not be reached, the
// comparison being strict: accepting at the exact deadline fails.
func (t *Task) Accept(caller UserID, now time.Time) error {
	if t.status != StatusOpen {
		return errors.Wrapf(ErrInvalidState, "task is %s, not open", t.status)
	}

	if caller == t.client {
		return errors.Wrap(ErrUnauthorized, "client cannot accept its own task")
	}

	if !now.Before(t.deadline) {
		return errors.Wrap(ErrInvalidState, "deadline has passed")
	}

	t.freelancer = caller
	t.status = StatusAssigned
	t.updatedAt = now

	return nil
}

// Confirm records one side of the dual confirmation protocol and reports
// whether this call completed the pair. The freelancer marks its work as
// submitted (idempotent while the task stays assigned), the client approves a
// submitted task. The task transitions to completed exactly when the second
// flag flips to true.
func (t *Task) Confirm(caller UserID, now time.Time) (bool, error) {
	switch caller {
	case t.freelancer:
		if t.status != StatusAssigned {
			return false, errors.Wrapf(ErrInvalidState, "task is %s, not assigned", t.status)
		}

		t.freelancerSubmitted = true
	case t.client:
		if !t.freelancerSubmitted {
			return false, errors.Wrap(ErrInvalidState, "freelancer has not submitted its work yet")
		}

		if t.status != StatusAssigned {
			return false, errors.Wrapf(ErrInvalidState, "task is %s, not assigned", t.status)
		}

		t.clientApproved = true
	default:
		return false, errors.Wrap(ErrUnauthorized, "caller is neither client nor freelancer")
	}

	t.updatedAt = now

	if t.freelancerSubmitted && t.clientApproved {
		t.status = StatusCompleted
		return true, nil
	}

	return false, nil
}

// Cancel refuses anything but the client cancelling a still-open task. An
// assigned task can never be cancelled through this transition.
func (t *Task) Cancel(caller UserID, now time.Time) error {
	if caller != t.client {
		return errors.Wrap(ErrUnauthorized, "only the client can cancel a task")
	}

	if t.status != StatusOpen {
		return errors.Wrapf(ErrInvalidState, "task is %s, not open", t.status)
	}

	t.status = StatusCancelled
	t.updatedAt = now

	return nil
}

// Fee computes the platform fee for the task's reward at the given
// percentage. Integer division: the fee rounds down, the freelancer keeps the
// remainder.
func (t *Task) Fee(percentage int64) Amount {
	return t.reward * Amount(percentage) / 100
}

// Clone returns an independent copy, so stores can hand out snapshots without
// aliasing their internal state.
func (t *Task) Clone() *Task {
	clone := *t
	return &clone
}
