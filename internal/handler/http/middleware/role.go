package middleware

import (
	"net/http"
	"slices"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/response"
)

// RequireRoles allows the request through only for the listed roles
func RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if !actor.Authenticated() {
				response.Unauthorized(w, "Unauthorized")
				return
			}
			if !slices.Contains(roles, actor.Role) {
				response.Forbidden(w, "Insufficient role for this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
