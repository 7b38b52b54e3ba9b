package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/pkg/utils"
)

// Recovery turns panics into a 500 JSON response
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", middleware.GetReqID(r.Context()),
						"stack", string(debug.Stack()),
					)

					utils.Error(w, apperrors.InternalError("an unexpected error occurred"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
