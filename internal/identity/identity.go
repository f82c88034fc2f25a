// Package identity carries the acting owner through a context.Context.
// Every core operation resolves its owner here; a context without one
// behaves like a logged-out session.
package identity

import "context"

type ownerKey struct{}

func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner id and whether one is set.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
