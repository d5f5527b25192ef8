package setup

import (
	"context"

	gormAdapter "github.com/bornholm/taskmarket/internal/adapter/gorm"
	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/pkg/errors"
)

var getTaskStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.TaskStore, error) {
	db, err := getGormDatabaseFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return gormAdapter.NewTaskStore(db), nil
})
