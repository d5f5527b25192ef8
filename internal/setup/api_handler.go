package setup

import (
	"context"

	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/http/handler/api"
	"github.com/pkg/errors"
)

func getAPIHandlerFromConfig(ctx context.Context, conf *config.Config) (*api.Handler, error) {
	registry, err := getRegistryFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	notifier, err := getNotifierFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	handler := api.NewHandler(registry, notifier)

	return handler, nil
}
