package grpcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryClientRequestIDInterceptor forwards the request id of an HTTP or gRPC caller.
func UnaryClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		id := httpx.RequestIDFromContext(ctx)
		if id == "" {
			id = RequestIDFromContext(ctx)
		}
		if id != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, RequestIDMetadataKey, id)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// UnaryServerRequestIDInterceptor stores the inbound request id in ctx (minting one when absent)
// and echoes it in the response header.
func UnaryServerRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var id string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = NewRequestID()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, id))
		return handler(WithRequestID(ctx, id), req)
	}
}

func UnaryServerLogInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			"request_id", RequestIDFromContext(ctx),
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
