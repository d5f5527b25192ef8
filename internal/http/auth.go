package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"slices"

	"github.com/bornholm/taskmarket/internal/core/model"
	httpCtx "github.com/bornholm/taskmarket/internal/http/context"
	"github.com/bornholm/taskmarket/internal/log"
)

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok {
			usernameHash := sha256.Sum256([]byte(username))
			passwordHash := sha256.Sum256([]byte(password))

			userIndex := slices.IndexFunc(s.opts.Auth.Users, func(u User) bool {
				return u.Username == username
			})

			if userIndex != -1 {
				user := s.opts.Auth.Users[userIndex]

				expectedUsername := sha256.Sum256([]byte(user.Username))
				expectedPassword := sha256.Sum256([]byte(user.Password))

				usernameMatch := (subtle.ConstantTimeCompare(usernameHash[:], expectedUsername[:]) == 1)
				passwordMatch := (subtle.ConstantTimeCompare(passwordHash[:], expectedPassword[:]) == 1)

				if usernameMatch && passwordMatch {
					user := model.NewReadOnlyUser(model.UserID(username), username, user.Roles...)

					ctx := httpCtx.SetUser(r.Context(), user)
					ctx = log.WithAttrs(ctx, slog.String("user", model.UserString(user)))

					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
		}

		if s.opts.Auth.AllowAnonymous {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
