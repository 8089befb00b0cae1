package http

import (
	"net/http"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/pkg/httpx"
)

// RequireRole rejects requests whose session role claim does not carry at
// least the given privilege. The claim is a snapshot from login; privilege
// mutations (elevate/demote) re-check the database themselves.
func RequireRole(min domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := domain.ParseRole(httpx.RoleFromCtx(r.Context()))
			if err != nil || !role.AtLeast(min) {
				writeFailure(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
