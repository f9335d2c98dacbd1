package services

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// NewRunID returns a fresh identifier for one relay run
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID attaches a run identifier to ctx
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run identifier stored in ctx, or "" if none
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// ShortRunID returns the first eight characters of a run identifier
func ShortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
