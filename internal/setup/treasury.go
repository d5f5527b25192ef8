package setup

import (
	"context"

	"github.com/bornholm/taskmarket/internal/adapter/memory"
	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/core/port"
)

// The in-process treasury is the only implementation for now. A hosting
// environment with a real payment backend would swap it here.
var getTreasuryFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.Treasury, error) {
	return memory.NewTreasury(), nil
})
