// Package grpcserver exposes availability and booking over gRPC.
//
// The service is declared by hand and carried by the JSON codec registered in libs/grpcx,
// so callers must use grpc.CallContentSubtype(grpcx.JSONCodecName).
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/store"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName     = "slotbook.v1.Availability"
	RejectionDomain = "slotbook"
)

type FindSlotsRequest struct {
	// Empty means every service in the catalog.
	ServiceID string     `json:"service_id,omitempty"`
	Date      model.Date `json:"date"`
}

type FindSlotsResponse struct {
	Slots []model.AvailableSlot `json:"slots"`
}

type BookRequest struct {
	ServiceID string               `json:"service_id"`
	Date      model.Date           `json:"date"`
	SlotTime  *timeofday.TimeOfDay `json:"slot_time"`
	Users     []string             `json:"users"`
}

type BookResponse struct {
	Booking model.BookedSlot `json:"booking"`
}

type AvailabilityServer interface {
	FindSlots(ctx context.Context, req *FindSlotsRequest) (*FindSlotsResponse, error)
	Book(ctx context.Context, req *BookRequest) (*BookResponse, error)
}

type Finder interface {
	ForService(ctx context.Context, serviceID string, date model.Date) ([]model.AvailableSlot, error)
	ForCatalog(ctx context.Context, date model.Date) ([]model.AvailableSlot, error)
}

type Booker interface {
	Book(ctx context.Context, serviceID string, req booking.Request) (model.BookedSlot, error)
}

type Server struct {
	finder Finder
	booker Booker
	logger *slog.Logger
}

func New(finder Finder, booker Booker, logger *slog.Logger) *Server {
	return &Server{finder: finder, booker: booker, logger: logger}
}

func (s *Server) FindSlots(ctx context.Context, req *FindSlotsRequest) (*FindSlotsResponse, error) {
	if req.Date.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	var (
		slots []model.AvailableSlot
		err   error
	)
	if id := strings.TrimSpace(req.ServiceID); id != "" {
		slots, err = s.finder.ForService(ctx, id, req.Date)
	} else {
		slots, err = s.finder.ForCatalog(ctx, req.Date)
	}
	if err != nil {
		return nil, s.toStatus(err)
	}
	if slots == nil {
		slots = []model.AvailableSlot{}
	}
	return &FindSlotsResponse{Slots: slots}, nil
}

func (s *Server) Book(ctx context.Context, req *BookRequest) (*BookResponse, error) {
	serviceID := strings.TrimSpace(req.ServiceID)
	if serviceID == "" || req.Date.IsZero() || req.SlotTime == nil {
		return nil, status.Error(codes.InvalidArgument, "service_id, date and slot_time are required")
	}
	booked, err := s.booker.Book(ctx, serviceID, booking.Request{
		Date:      req.Date,
		SlotStart: *req.SlotTime,
		Users:     req.Users,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &BookResponse{Booking: booked}, nil
}

// toStatus maps rejections to FailedPrecondition with the kind as ErrorInfo reason.
func (s *Server) toStatus(err error) error {
	if rej, ok := booking.AsRejection(err); ok {
		st := status.New(codes.FailedPrecondition, rej.Message)
		if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: string(rej.Kind), Domain: RejectionDomain}); derr == nil {
			st = detailed
		}
		return st.Err()
	}
	if errors.Is(err, store.ErrNotFound) {
		return status.Error(codes.NotFound, "service not found")
	}
	s.logger.Error("grpc request failed", "err", err)
	return status.Error(codes.Internal, "internal error")
}

// RejectionKind extracts the booking rejection kind from a status error returned by Book.
func RejectionKind(err error) (booking.RejectionKind, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == RejectionDomain {
			return booking.RejectionKind(info.GetReason()), true
		}
	}
	return "", false
}

func Register(s *grpc.Server, srv AvailabilityServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindSlots", Handler: findSlotsHandler},
		{MethodName: "Book", Handler: bookHandler},
	},
	Metadata: "slotbook/v1/availability",
}

func findSlotsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FindSlotsRequest)
	if err := dec(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).FindSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/FindSlots"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).FindSlots(ctx, req.(*FindSlotsRequest))
	})
}

func bookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BookRequest)
	if err := dec(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).Book(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Book"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).Book(ctx, req.(*BookRequest))
	})
}

// Client calls the Availability service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) FindSlots(ctx context.Context, req *FindSlotsRequest, opts ...grpc.CallOption) (*FindSlotsResponse, error) {
	out := new(FindSlotsResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/FindSlots", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Book(ctx context.Context, req *BookRequest, opts ...grpc.CallOption) (*BookResponse, error) {
	out := new(BookResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Book", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
