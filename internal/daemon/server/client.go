package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hatray/hatray/internal/commands"
	"github.com/hatray/hatray/internal/models"
)

// Client calls a running daemon.
type Client struct {
	conn grpc.ClientConnInterface
}

// Dial connects to the daemon at host:port.
func Dial(host string, port int) (*Client, *grpc.ClientConn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return NewClient(conn), conn, nil
}

// NewClient wraps an existing connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, service, method string, in, out any) error {
	if err := c.conn.Invoke(ctx, "/"+service+"/"+method, in, out); err != nil {
		if st, ok := status.FromError(err); ok {
			return commands.Error(st.Message())
		}
		return err
	}
	return nil
}

// LoadSettings returns the daemon's connection settings.
func (c *Client) LoadSettings(ctx context.Context) (models.ConnectionSettings, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, TrayServiceName, "LoadSettings", &emptypb.Empty{}, out); err != nil {
		return models.ConnectionSettings{}, err
	}
	return settingsFromStruct(out), nil
}

// UpdateSettings stores new connection settings.
func (c *Client) UpdateSettings(ctx context.Context, appURL, token string) error {
	in := settingsToStruct(models.ConnectionSettings{AppURL: appURL, Token: token})
	return c.invoke(ctx, TrayServiceName, "UpdateSettings", in, new(emptypb.Empty))
}

// CheckAPIStatus stores the settings and checks the hub with them. Transport
// failures to the daemon itself are reported as Offline.
func (c *Client) CheckAPIStatus(ctx context.Context, appURL, token string) models.APIStatusResult {
	in := settingsToStruct(models.ConnectionSettings{AppURL: appURL, Token: token})
	out := new(structpb.Struct)
	if err := c.invoke(ctx, TrayServiceName, "CheckAPIStatus", in, out); err != nil {
		return models.Offline(err.Error())
	}
	return statusFromStruct(out)
}

// ListSwitchEntities lists the hub's switch entities.
func (c *Client) ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, TrayServiceName, "ListSwitchEntities", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return entitiesFromList(out), nil
}

// SetEntitySelected selects or deselects an entity.
func (c *Client) SetEntitySelected(ctx context.Context, entity models.BooleanEntity, selected bool) error {
	return c.invoke(ctx, TrayServiceName, "SetEntitySelected", selectionToStruct(entity, selected), new(emptypb.Empty))
}

// ListSelectedEntities lists the selection in menu order.
func (c *Client) ListSelectedEntities(ctx context.Context) ([]models.BooleanEntity, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, TrayServiceName, "ListSelectedEntities", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return entitiesFromList(out), nil
}

// ToggleEntity toggles one entity.
func (c *Client) ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, TrayServiceName, "ToggleEntity", wrapperspb.String(id), out); err != nil {
		return nil, err
	}
	return toggleResultsFromList(out), nil
}

// Status returns the daemon's connection record.
func (c *Client) Status(ctx context.Context) (*models.DaemonInfo, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, DaemonServiceName, "GetStatus", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return daemonInfoFromStruct(out), nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.invoke(ctx, DaemonServiceName, "Shutdown", &emptypb.Empty{}, new(emptypb.Empty))
}
