package setup

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/bornholm/taskmarket/internal/config"
	"github.com/bornholm/taskmarket/internal/http"
	"github.com/bornholm/taskmarket/internal/http/handler/metrics"
	"github.com/bornholm/taskmarket/internal/http/middleware/ratelimit"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

func NewHTTPServerFromConfig(ctx context.Context, conf *config.Config) (*http.Server, error) {
	api, err := getAPIHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not configure api handler from config")
	}

	var apiHandler nethttp.Handler = api

	if conf.HTTP.RateLimit.Enabled {
		limit := ratelimit.Middleware(false, rate.Limit(conf.HTTP.RateLimit.Rate), conf.HTTP.RateLimit.Burst, 1024, time.Hour)
		apiHandler = limit(apiHandler)
	}

	options := []http.OptionFunc{
		http.WithAddress(conf.HTTP.Address),
		http.WithBaseURL(conf.HTTP.BaseURL),
		http.WithAllowAnonymous(conf.HTTP.Auth.AllowAnonymous),
		http.WithMount("/api/v1/", apiHandler),
		http.WithMount("/metrics/", metrics.NewHandler()),
	}

	if conf.HTTP.Auth.User.Username != "" {
		options = append(options, http.WithUser(conf.HTTP.Auth.User.Username, conf.HTTP.Auth.User.Password, "user"))
	}

	if conf.HTTP.Auth.Owner.Username != "" {
		options = append(options, http.WithUser(conf.HTTP.Auth.Owner.Username, conf.HTTP.Auth.Owner.Password, "user", "owner"))
	}

	server := http.NewServer(options...)

	return server, nil
}
