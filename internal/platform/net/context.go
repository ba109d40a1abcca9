// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const (
	keyPanelID ctxKey = "panel_id"
)

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, panelID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if panelID != "" {
		ctx = context.WithValue(ctx, keyPanelID, panelID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// PanelID returns the panel id on the context if present
func PanelID(ctx context.Context) string {
	if v, ok := ctx.Value(keyPanelID).(string); ok {
		return v
	}
	return ""
}
