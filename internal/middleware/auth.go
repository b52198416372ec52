package middleware

import (
	"net/http"
	"strings"

	"github.com/HammerMeetNail/thoughtwall/internal/logging"
	"github.com/HammerMeetNail/thoughtwall/internal/models"
	"github.com/HammerMeetNail/thoughtwall/internal/services"
)

// TokenVerifier decodes a signed identity token.
type TokenVerifier interface {
	Verify(raw string) (*models.Identity, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate attaches the token's identity to the request context. A
// missing or invalid token never rejects the request; it proceeds
// anonymously and identity-required operations fail later.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.tokens.Verify(raw)
		if err != nil {
			logging.Warn("Invalid token", map[string]interface{}{
				"error": err.Error(),
				"path":  r.URL.Path,
			})
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(services.WithIdentity(r.Context(), identity)))
	})
}

// tokenFromRequest prefers the Authorization header over the token query
// parameter.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		fields := strings.Fields(header)
		if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
			return fields[1]
		}
		return strings.TrimSpace(header)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
