package grpcx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// RequestIDMetadataKey is lowercase as gRPC metadata keys are case-insensitive and lowered on the wire.
const RequestIDMetadataKey = "x-request-id"

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func NewRequestID() string {
	return uuid.NewString()
}
