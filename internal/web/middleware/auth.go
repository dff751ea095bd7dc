package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/clientdesk/internal/core"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware that resolves the X-API-Key header to the
// user that owns it and stores the user id in the request context.
//
// If required is false, requests without a key pass through anonymously; an
// import committed without a user then fails with AUTH001. A key that is
// present but unknown is always rejected.
func APIKeyAuth(owners map[string]uuid.UUID, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			owner, ok := lookupAPIKey(apiKey, owners)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			next.ServeHTTP(w, r.WithContext(core.ContextWithUserID(r.Context(), owner)))
		})
	}
}

// lookupAPIKey finds the owner of key. It compares against ALL keys in
// constant time so the response time does not reveal which key matched.
func lookupAPIKey(key string, owners map[string]uuid.UUID) (uuid.UUID, bool) {
	var (
		found uuid.UUID
		match int
	)
	for candidate, owner := range owners {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			found = owner
			match = 1
		}
	}
	return found, match == 1
}
