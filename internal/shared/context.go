package shared

import "context"

type actorKey struct{}

// ActorSystem is the principal recorded for interactive operations that do not
// carry an authenticated user.
const ActorSystem = "system"

// ActorCron is the principal recorded by scheduled batch runs.
const ActorCron = "system_cron"

// ActorAlert is the principal recorded on threshold alert entries.
const ActorAlert = "system_alert"

// WithActor stores the acting principal in the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting principal, falling back to ActorSystem.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return ActorSystem
}
