package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"roundreview/internal/domain"
	"roundreview/internal/domain/services"
	"roundreview/internal/httputil"
)

// Auth resolves the actor of every request and stores it in the context.
// Requests that fail authentication never reach next.
func Auth(authenticator services.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := authenticator.Authenticate(r)
			if err != nil {
				var httpErr domain.HTTPError
				if errors.As(err, &httpErr) {
					httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
					return
				}
				logger.Error("authentication failed",
					"error", err,
					"path", r.URL.Path,
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, httputil.WithActor(r, actor))
		})
	}
}
