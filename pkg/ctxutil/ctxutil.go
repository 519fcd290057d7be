// Package ctxutil carries request-scoped values through a context.
package ctxutil

import "context"

type ctxKey string

const ownerIDKey ctxKey = "owner_id"

// WithOwnerID stores the signed-in owner's id in the context.
func WithOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ownerIDKey, id)
}

// OwnerIDFromCtx extracts the owner id from the context.
// Returns "" and false if the value is missing or empty.
func OwnerIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
