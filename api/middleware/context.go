package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/pkg/logger"
)

type contextKey string

const ctxActorID contextKey = "actor_id"

const actorIDHeader = "X-Actor-Id"

// ActorContext lifts the authenticated actor id out of the X-Actor-Id
// header. Authentication itself happens upstream; an absent or malformed
// header just leaves the actor anonymous.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := r.Header.Get(actorIDHeader); raw != "" {
				if actorID, err := uuid.Parse(raw); err == nil {
					ctx = WithActorID(ctx, actorID)
					if logg != nil {
						ctx = logg.WithActorID(ctx, actorID.String())
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorIDFromContext returns the acting user's id, or uuid.Nil when the
// request was anonymous.
func ActorIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxActorID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithActorID injects the actor identifier into the context.
func WithActorID(ctx context.Context, actorID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}
