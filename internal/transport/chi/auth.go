package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/arsomjin/kbnsearch/internal/domain/access"
)

type accessCtxKey struct{}

// AccessFromContext returns the caller's access context, defaulting to
// unrestricted when auth is disabled.
func AccessFromContext(ctx context.Context) access.Context {
	if ac, ok := ctx.Value(accessCtxKey{}).(access.Context); ok {
		return ac
	}
	return access.Unrestricted()
}

// ContextWithAccess attaches an access context to the request context.
func ContextWithAccess(ctx context.Context, ac access.Context) context.Context {
	return context.WithValue(ctx, accessCtxKey{}, ac)
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens
// and injects the key's geographic access profile into the request context.
// If profiles is empty, authentication is disabled (pass-through with
// unrestricted visibility).
func BearerAuthMiddleware(profiles map[string]access.Context) func(http.Handler) http.Handler {
	valid := make(map[string]access.Context, len(profiles))
	for k, p := range profiles {
		if k != "" {
			valid[k] = p
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled: pass everything through
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					codeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			ac, ok := valid[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAccess(r.Context(), ac)))
		})
	}
}
