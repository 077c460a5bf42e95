package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/sehatly/pkg/auth"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

type claimsKey struct{}

// ClaimsFromCtx returns the verified token claims attached by RequireAuth.
func ClaimsFromCtx(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// RequireAuth verifies the bearer token and attaches the decoded identity
// (userId, role) to the request context. Missing token → 401, bad token → 403.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Unauthorized(w, "Please login first")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusForbidden, "Invalid or expired token. Please login again.")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
