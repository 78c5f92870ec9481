// Package net holds request scoped values shared by the http layers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{ name string }

var keyUserID = ctxKey{"user_id"}

// WithUser stores the authenticated user id, empty ids are ignored
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyUserID, userID)
}

// UserID returns the authenticated user id or ""
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserID).(string)
	return v
}

// RequestID returns the id set by the chi RequestID middleware or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
