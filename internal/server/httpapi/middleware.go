package httpapi

import (
	"net/http"
	"strings"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/server/auth"
)

const refreshTokenHeader = "Refresh-Token"

// bearerToken pulls the credential out of the Authorization header. A bare
// token without the Bearer prefix is accepted too.
func bearerToken(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(value, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return value
}

// authenticate rejects requests whose access token is missing, unparseable,
// expired or revoked, and puts the caller's identity on the context for the
// wrapped handler.
func (s *HTTPServer) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		token := bearerToken(r)
		if token == "" {
			writeError(w, common.ErrMissingCredential)
			return
		}

		if !s.checker.IsValid(r.Context(), token) {
			writeError(w, common.ErrInvalidCredential)
			return
		}

		claims, err := auth.ParseAccessToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, common.ErrInvalidCredential)
			return
		}

		identity := auth.Identity{
			UserID: claims.UserID,
			Email:  claims.Subject,
			Role:   auth.Role(claims.Role),
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

func (s *HTTPServer) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			writeError(w, common.ErrorForbidden)
			return
		}
		next(w, r)
	}
}
