// Package grpc_control exposes the dashboard tables over gRPC for scripts
// that want the computed views without a browser.
package grpc_control

import (
	"context"
	"encoding/json"
	"errors"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/server"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "optionsobserver.Control"

// ControlServer is the server API of optionsobserver.Control.
type ControlServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Views(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

// ControlService answers status and view requests from the loaded tables.
type ControlService struct {
	Config *models.MConfig
	Tables *server.Tables
	Logger *logger.Logger
}

func NewControlService(cfg *models.MConfig, tables *server.Tables, log *logger.Logger) *ControlService {
	return &ControlService{Config: cfg, Tables: tables, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *ControlService) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	c := s.Tables.Controls()
	return toStruct(map[string]any{
		"name":          s.Config.Name,
		"tickers":       c.Tickers,
		"default":       c.DefaultTicker,
		"min_date":      c.MinDate,
		"max_date":      c.MaxDate,
		"snapshot_date": c.SnapshotDate,
		"feature_rows":  s.Tables.Len(),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) Views(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	viewReq := models.MViewRequest{
		Ticker: fields["ticker"].GetStringValue(),
		Start:  fields["start"].GetStringValue(),
		End:    fields["end"].GetStringValue(),
	}

	views, err := s.Tables.Views(viewReq)
	if err != nil {
		var verr *helpers.ValidationError
		if errors.As(err, &verr) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.Logger.Error("Failed to compute views: %v", err)
		return nil, status.Error(codes.Internal, "failed to compute views")
	}
	return toStruct(views)
}

// -----------------------------------------------------------------------------

// toStruct converts any JSON-encodable value through its JSON form, so the
// field names match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Service descriptor
// -----------------------------------------------------------------------------

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&controlServiceDesc, srv)
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Views", Handler: viewsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "options_observer_control",
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Status"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func viewsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Views(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Views"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Views(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// ControlClient calls optionsobserver.Control.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Status", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) Views(ctx context.Context, req models.MViewRequest, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"ticker": req.Ticker, "start": req.Start, "end": req.End})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Views", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
