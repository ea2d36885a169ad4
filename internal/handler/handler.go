// Package handler serves the calendar over gRPC. Messages are protobuf
// well-known types (structpb.Struct in, structpb.Struct or emptypb.Empty
// out), so clients need no generated stubs.
package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"personal-calendar/internal/account"
	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
	"personal-calendar/internal/store"
)

const ServiceName = "calendar.v1.CalendarService"

// Splitter breaks a task description into ordered steps.
type Splitter interface {
	Split(ctx context.Context, task, lang string) ([]string, error)
}

// CalendarServiceServer is the set of RPCs registered under ServiceName.
type CalendarServiceServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteEvent(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	SplitTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SaveSubtasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type Handler struct {
	accounts *account.Service
	events   store.Events
	splitter Splitter
	secret   string
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func New(accounts *account.Service, events store.Events, splitter Splitter, secret string, ttl time.Duration, log *zap.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		events:   events,
		splitter: splitter,
		secret:   secret,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalendarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", CalendarServiceServer.Login),
		unary("ListEvents", CalendarServiceServer.ListEvents),
		unary("CreateEvent", CalendarServiceServer.CreateEvent),
		unary("DeleteEvent", CalendarServiceServer.DeleteEvent),
		unary("SplitTask", CalendarServiceServer.SplitTask),
		unary("SaveSubtasks", CalendarServiceServer.SaveSubtasks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calendar/v1/calendar.proto",
}

func Register(s grpc.ServiceRegistrar, h CalendarServiceServer) {
	s.RegisterService(&ServiceDesc, h)
}

func unary[Resp any](name string, call func(CalendarServiceServer, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl := srv.(CalendarServiceServer)
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(impl, ctx, req.(*structpb.Struct))
			})
		},
	}
}

func session(ctx context.Context) (middleware.Session, error) {
	s, ok := middleware.SessionFrom(ctx)
	if !ok {
		return s, status.Error(codes.Unauthenticated, "not logged in")
	}
	return s, nil
}

// toStatus maps domain errors onto gRPC codes; anything unknown is logged
// and reported as Internal.
func (h *Handler) toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, model.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, model.ErrDuplicateUsername):
		return status.Error(codes.AlreadyExists, "username already exists")
	case errors.Is(err, model.ErrMissingEmail),
		errors.Is(err, model.ErrMissingTitle),
		errors.Is(err, model.ErrMalformedTimestamp):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrCompletionFailed):
		return status.Error(codes.Unavailable, "task splitting is unavailable")
	}
	h.log.Error("rpc failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

func str(s *structpb.Struct, key string) string {
	if v, ok := s.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func strs(s *structpb.Struct, key string) []string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}
