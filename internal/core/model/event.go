package model

// Event is a registry notification, delivered synchronously to the configured
// notifier at the point the triggering operation commits. Delivery order
// within one operation is significant: TaskCompleted always precedes
// PaymentReleased.
type Event interface {
	EventName() string
}

type TaskCreated struct {
	TaskID TaskID `json:"taskId"`
	Client UserID `json:"client"`
	Title  string `json:"title"`
	Reward Amount `json:"reward"`
}

func (TaskCreated) EventName() string { return "task-created" }

type TaskAssigned struct {
	TaskID     TaskID `json:"taskId"`
	Freelancer UserID `json:"freelancer"`
}

func (TaskAssigned) EventName() string { return "task-assigned" }

type TaskCompleted struct {
	TaskID     TaskID `json:"taskId"`
	Freelancer UserID `json:"freelancer"`
	Client     UserID `json:"client"`
}

func (TaskCompleted) EventName() string { return "task-completed" }

type TaskCancelled struct {
	TaskID TaskID `json:"taskId"`
	Client UserID `json:"client"`
}

func (TaskCancelled) EventName() string { return "task-cancelled" }

type PaymentReleased struct {
	TaskID     TaskID `json:"taskId"`
	Freelancer UserID `json:"freelancer"`
	Amount     Amount `json:"amount"`
}

func (PaymentReleased) EventName() string { return "payment-released" }
