// Package identity holds the engine's view of its external identity
// collaborators: the "current authenticated user id, or none" resolver and
// the stored-user existence check. Authentication itself happens upstream.
package identity

import (
	"context"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext resolves the current authenticated user id. ok is false
// when the request carries no identity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// UserStore is the user-record collaborator. Exists must be cheap; it gates
// every reservation create.
type UserStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
