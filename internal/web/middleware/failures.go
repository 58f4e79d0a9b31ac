package middleware

import (
	"net/http"

	"github.com/JonMunkholm/objmap/internal/core"
)

// FailureSink scopes sink to every request, so Save and Delete failures
// raised while serving it are reported there instead of returned.
func FailureSink(sink core.FailureSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := core.WithFailureSink(r.Context(), sink)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
