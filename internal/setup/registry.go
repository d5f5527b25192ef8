package setup

import (
	"context"

	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/service"
	"github.com/pkg/errors"
)

var getRegistryFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Registry, error) {
	store, err := getTaskStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	treasury, err := getTreasuryFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	notifier, err := getNotifierFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	registry, err := service.NewRegistry(
		store, treasury, notifier,
		model.UserID(conf.Market.Owner),
		service.WithRegistryFeePercentage(conf.Market.FeePercentage),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return registry, nil
})
