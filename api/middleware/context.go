package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
)

type identityKey struct{}

// identity is what Auth learned from the access token.
type identity struct {
	actor     policy.Actor
	sessionID string
}

func identityFrom(ctx context.Context) (identity, bool) {
	if ctx == nil {
		return identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(identity)
	return id, ok
}

// WithActor stores the caller identity on the context.
func WithActor(ctx context.Context, actor policy.Actor, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity{actor: actor, sessionID: sessionID})
}

// ActorFromContext returns the zero Actor for unauthenticated requests, which
// every policy check rejects.
func ActorFromContext(ctx context.Context) policy.Actor {
	id, _ := identityFrom(ctx)
	return id.actor
}

func UserIDFromContext(ctx context.Context) string {
	id, ok := identityFrom(ctx)
	if !ok || id.actor.UserID == uuid.Nil {
		return ""
	}
	return id.actor.UserID.String()
}

func RoleFromContext(ctx context.Context) string {
	id, _ := identityFrom(ctx)
	return string(id.actor.Role)
}

// SessionIDFromContext returns the access token jti.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := identityFrom(ctx)
	return id.sessionID
}
