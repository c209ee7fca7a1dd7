package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/wolfman30/salesforce-ai-backend/internal/http/payload"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

const internalErrorMessage = "An internal error occurred."

// Recoverer turns a handler panic into the JSON internal-error response and
// logs the panic with its stack.
func Recoverer(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.Error("handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", w.Header().Get(RequestIDHeader),
					"panic", fmt.Sprint(rvr),
					"stack", string(debug.Stack()),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					payload.WriteError(w, http.StatusInternalServerError, internalErrorMessage)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
