package grpcx

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type DialOptions struct {
	// Nil means plaintext, which is what in-cluster traffic behind a mesh uses.
	TransportCredentials grpc.DialOption
}

// Dial creates a lazily connecting client with tracing and request id propagation.
func Dial(addr string, opts DialOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestIDInterceptor()),
	}
	if opts.TransportCredentials != nil {
		dialOpts = append(dialOpts, opts.TransportCredentials)
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, extra...)
	return grpc.NewClient(addr, dialOpts...)
}

// NewServer builds a server with the same instrumentation as Dial plus extra interceptors.
func NewServer(extra ...grpc.UnaryServerInterceptor) *grpc.Server {
	interceptors := append([]grpc.UnaryServerInterceptor{UnaryServerRequestIDInterceptor()}, extra...)
	return grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
}
