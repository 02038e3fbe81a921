// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dhsavell/beat-func/internal/log"
)

// Recoverer turns handler panics into 500 responses instead of dropped
// connections. http.ErrAbortHandler is re-raised so aborted streams keep
// their net/http semantics.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Error().
					Str(log.FieldEvent, "api.panic").
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
