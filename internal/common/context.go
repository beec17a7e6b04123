package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ContextKeyDocumentID contextKey = "document_id"

// WithDocumentID tags the context with the ID of the document being processed.
func WithDocumentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentID, id)
}

// DocumentIDFromContext returns the document ID, or uuid.Nil when absent.
func DocumentIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyDocumentID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
