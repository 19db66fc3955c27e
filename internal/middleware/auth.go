package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/auth"
	"github.com/sbms/facilities-server/internal/models"
)

type ctxKey int

const actorKey ctxKey = iota

// WithActor returns a copy of ctx carrying the authenticated actor.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the actor stored by RequireAuth.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey).(models.Actor)
	return a, ok
}

// RequireAuth validates bearer JWT tokens for protected routes and puts the
// caller's identity on the request context
func RequireAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}

			claims, err := auth.Parse(key, tokenStr)
			if err != nil {
				writeError(w, apperr.Status(err), "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Actor())))
		})
	}
}

// RequireRole rejects callers whose role is not listed. It must run after
// RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Your role does not permit this action")
		})
	}
}
