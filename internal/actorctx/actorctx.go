// Package actorctx carries the authenticated actor id on a context.Context so
// code below the HTTP layer (logging, job payloads) can see who is acting.
package actorctx

import "context"

type ctxKey struct{}

func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, actorID)
}

func ActorIDFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(ctxKey{}).(int64)

	return v, ok && v != 0
}
