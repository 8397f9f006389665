package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hatray/hatray/internal/commands"
	"github.com/hatray/hatray/internal/models"
)

// Service names.
const (
	TrayServiceName   = "hatray.TrayService"
	DaemonServiceName = "hatray.DaemonService"
)

// Facade is the operation set served over gRPC.
type Facade interface {
	LoadSettings() (models.ConnectionSettings, error)
	UpdateSettings(appURL, token string) error
	CheckAPIStatus(ctx context.Context, appURL, token string) models.APIStatusResult
	ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error)
	SetEntitySelected(entity models.BooleanEntity, selected bool) error
	ListSelectedEntities() []models.BooleanEntity
	ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error)
}

// Ensure the facade implementation satisfies Facade at compile time.
var _ Facade = (*commands.Commands)(nil)

// TrayServiceServer is the server interface for TrayService.
type TrayServiceServer interface {
	LoadSettings(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateSettings(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	CheckAPIStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSwitchEntities(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	SetEntitySelected(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ListSelectedEntities(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ToggleEntity(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

// DaemonServiceServer is the server interface for DaemonService.
type DaemonServiceServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// unary builds a method handler for one request type.
func unary[S any, Req proto.Message, Resp proto.Message](
	service, method string,
	newReq func() Req,
	call func(S, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty           { return new(emptypb.Empty) }
func newStruct() *structpb.Struct        { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// TrayServiceDesc describes TrayService.
var TrayServiceDesc = grpc.ServiceDesc{
	ServiceName: TrayServiceName,
	HandlerType: (*TrayServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(TrayServiceName, "LoadSettings", newEmpty, TrayServiceServer.LoadSettings),
		unary(TrayServiceName, "UpdateSettings", newStruct, TrayServiceServer.UpdateSettings),
		unary(TrayServiceName, "CheckAPIStatus", newStruct, TrayServiceServer.CheckAPIStatus),
		unary(TrayServiceName, "ListSwitchEntities", newEmpty, TrayServiceServer.ListSwitchEntities),
		unary(TrayServiceName, "SetEntitySelected", newStruct, TrayServiceServer.SetEntitySelected),
		unary(TrayServiceName, "ListSelectedEntities", newEmpty, TrayServiceServer.ListSelectedEntities),
		unary(TrayServiceName, "ToggleEntity", newString, TrayServiceServer.ToggleEntity),
	},
	Streams: []grpc.StreamDesc{},
}

// DaemonServiceDesc describes DaemonService.
var DaemonServiceDesc = grpc.ServiceDesc{
	ServiceName: DaemonServiceName,
	HandlerType: (*DaemonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DaemonServiceName, "GetStatus", newEmpty, DaemonServiceServer.GetStatus),
		unary(DaemonServiceName, "Shutdown", newEmpty, DaemonServiceServer.Shutdown),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterTrayServiceServer registers the TrayServiceServer with the gRPC server.
func RegisterTrayServiceServer(s grpc.ServiceRegistrar, srv TrayServiceServer) {
	s.RegisterService(&TrayServiceDesc, srv)
}

// RegisterDaemonServiceServer registers the DaemonServiceServer with the gRPC server.
func RegisterDaemonServiceServer(s grpc.ServiceRegistrar, srv DaemonServiceServer) {
	s.RegisterService(&DaemonServiceDesc, srv)
}

// toStatus carries a facade error across the wire as its message only.
func toStatus(err error) error {
	var flat commands.Error
	if errors.As(err, &flat) {
		return status.Error(codes.FailedPrecondition, string(flat))
	}
	return status.Error(codes.Internal, err.Error())
}

type trayService struct {
	facade Facade
}

func (s *trayService) LoadSettings(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	settings, err := s.facade.LoadSettings()
	if err != nil {
		return nil, toStatus(err)
	}
	return settingsToStruct(settings), nil
}

func (s *trayService) UpdateSettings(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	settings := settingsFromStruct(req)
	if err := s.facade.UpdateSettings(settings.AppURL, settings.Token); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *trayService) CheckAPIStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	settings := settingsFromStruct(req)
	return statusToStruct(s.facade.CheckAPIStatus(ctx, settings.AppURL, settings.Token)), nil
}

func (s *trayService) ListSwitchEntities(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entities, err := s.facade.ListSwitchEntities(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return entitiesToList(entities), nil
}

func (s *trayService) SetEntitySelected(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	entity, selected := selectionFromStruct(req)
	if err := s.facade.SetEntitySelected(entity, selected); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *trayService) ListSelectedEntities(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return entitiesToList(s.facade.ListSelectedEntities()), nil
}

func (s *trayService) ToggleEntity(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	results, err := s.facade.ToggleEntity(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	list, err := toggleResultsToList(results)
	if err != nil {
		return nil, toStatus(err)
	}
	return list, nil
}

type daemonService struct {
	info     *models.DaemonInfo
	shutdown func()
}

func (s *daemonService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return daemonInfoToStruct(s.info), nil
}

func (s *daemonService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if s.shutdown != nil {
		go s.shutdown()
	}
	return &emptypb.Empty{}, nil
}

// Register installs both services on s.
func Register(s grpc.ServiceRegistrar, facade Facade, info *models.DaemonInfo, shutdown func()) {
	RegisterTrayServiceServer(s, &trayService{facade: facade})
	RegisterDaemonServiceServer(s, &daemonService{info: info, shutdown: shutdown})
}
