package auth

import (
	"log/slog"
	"net/http"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
)

// RBACAuthorization gates whole routes by role. Row-level decisions go through Policy.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RBACAuthorization) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: session not found in context")
				ra.HandleServiceError(w, ErrMissingToken)
				return
			}

			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			ra.Logger.WarnContext(r.Context(), "access denied: role not permitted",
				"account_id", sess.AccountID,
				"role", sess.Role)
			if len(roles) == 1 && roles[0] == RoleAdmin {
				ra.HandleServiceError(w, internal.ErrAdminRequired)
				return
			}
			ra.HandleServiceError(w, internal.ErrAccessDenied)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleAdmin)
}
