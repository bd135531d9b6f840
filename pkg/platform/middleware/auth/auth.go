// Package auth enforces bearer token authentication and scopes each request
// to its tenant. Platform-admin tokens carry no tenant and are the only ones
// allowed through RequirePlatformAdmin.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "northstar/pkg/domain"
	"northstar/pkg/requestcontext"
)

// Claims are the validated token claims the middleware consumes.
type Claims struct {
	ActorID  string
	Role     string
	TenantID string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor and tenant in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActorID(ctx, claims.ActorID)
			if claims.TenantID != "" {
				tenantID, err := id.ParseTenantID(claims.TenantID)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access, malformed tenant claim",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid tenant claim")
					return
				}
				ctx = requestcontext.WithTenantID(ctx, tenantID)
			}
			ctx = withRole(ctx, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePlatformAdmin gates platform-scope routes. Must run after
// RequireAuth.
func RequirePlatformAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if Role(ctx) != "platform_admin" {
				logger.WarnContext(ctx, "forbidden, platform scope required",
					"actor_id", requestcontext.ActorID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Platform administrator scope required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
