package port

import (
	"context"

	"github.com/bornholm/taskmarket/internal/core/model"
)

// Notifier receives registry events, synchronously, in emission order.
type Notifier interface {
	Notify(ctx context.Context, event model.Event)
}

type NotifierFunc func(ctx context.Context, event model.Event)

func (f NotifierFunc) Notify(ctx context.Context, event model.Event) {
	f(ctx, event)
}
