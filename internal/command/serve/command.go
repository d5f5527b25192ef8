package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the task marketplace server",
		Action: func(cCtx *cli.Context) error {
			ctx, cancel := context.WithCancel(cCtx.Context)
			defer cancel()

			conf, err := config.Parse()
			if err != nil {
				return errors.Wrap(err, "could not parse config")
			}

			slog.DebugContext(ctx, "using configuration", slog.Any("config", conf))

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)

			go func() {
				slog.InfoContext(ctx, "use ctrl+c to interrupt")
				<-sig
				cancel()
			}()

			server, err := setup.NewHTTPServerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not setup http server")
			}

			slog.InfoContext(ctx, "starting server", slog.Any("address", conf.HTTP.Address))

			if err := server.Run(ctx); err != nil {
				return errors.Wrap(err, "could not run server")
			}

			return nil
		},
	}
}
