package auth

import "context"

type actorKey struct{}

func ContextWithActor(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, actorKey{}, claims)
}

func ActorFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(actorKey{}).(*Claims)
	return claims, ok
}
