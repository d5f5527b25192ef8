package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"
)

type Server struct {
	opts *Options
}

// Handler assembles the mounted handlers and the middleware chain:
// authentication, CORS, then request logging, outermost last.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	baseURL := strings.TrimSuffix(s.opts.BaseURL, "/")

	for prefix, handler := range s.opts.Mounts {
		mounted := baseURL + prefix

		mux.Handle(mounted, http.StripPrefix(strings.TrimSuffix(mounted, "/"), handler))
	}

	handler := s.basicAuth(mux)
	handler = cors.AllowAll().Handler(handler)
	handler = sloghttp.New(slog.Default())(handler)

	return handler
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.opts.Address,
		Handler: s.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "could not shutdown server", slog.Any("error", errors.WithStack(err)))
		}
	}()

	slog.InfoContext(ctx, "http server listening", slog.String("address", s.opts.Address))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func NewServer(funcs ...OptionFunc) *Server {
	return &Server{
		opts: NewOptions(funcs...),
	}
}
