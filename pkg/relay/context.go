package relay

import (
	"context"

	"github.com/cuemby/sakya/pkg/identity"
)

type identityContextKey struct{}

func contextWithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

func identityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(identity.Identity)
	return id, ok
}
