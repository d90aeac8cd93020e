package middleware

import (
	"net/http"
	"strings"

	"cipherstudio/internal/auth"
	"cipherstudio/internal/httputil"
)

// Auth extracts and verifies the bearer token, storing the user ID in the
// request context. Requests without a token pass through anonymously so
// public projects stay readable; an invalid token is always rejected.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				httputil.RespondError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			userID, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
