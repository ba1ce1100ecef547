package auth

import (
	"net/http"

	"github.com/nikhilbhutani/medalchat/internal/identity"
)

// RequireRole lets through only callers whose role is one of roles. It must
// run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user, ok := identity.FromContext(req.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "no user in context")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
