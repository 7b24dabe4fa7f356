package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type actorKey struct{}

// AuthRequired rejects requests without a verified access token and stores the session actor.
// It must run after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Missing access token")
			return
		}

		actor, err := jwt.ActorFromClaims(claims)
		if err != nil {
			response.Unauthorized(w, "Invalid access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor returns a copy of ctx carrying actor
func WithActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the session actor, or the zero Actor when there is none
func ActorFromContext(ctx context.Context) user.Actor {
	actor, _ := ctx.Value(actorKey{}).(user.Actor)
	return actor
}
