package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sakif/dating-profiles/internal/respond"
)

// Recoverer turns a panic in a handler into a 500 with the usual error
// envelope and logs the stack. http.ErrAbortHandler is re-panicked so the
// server can abort the connection as intended.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				respond.Internal(w, r, fmt.Errorf("panic: %v", rec), "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
