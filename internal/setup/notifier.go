package setup

import (
	"context"

	"github.com/bornholm/taskmarket/internal/adapter/memory"
	"github.com/bornholm/taskmarket/internal/config"
)

var getNotifierFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*memory.Notifier, error) {
	return memory.NewNotifier(conf.Market.EventBufferSize), nil
})
