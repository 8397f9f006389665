package cli

import (
	"context"
	"log"

	"github.com/hatray/hatray/internal/commands"
	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/daemon/server"
	"github.com/hatray/hatray/internal/models"
	"github.com/hatray/hatray/internal/selection"
)

// Backend is the operation set the CLI runs against.
type Backend interface {
	LoadSettings(ctx context.Context) (models.ConnectionSettings, error)
	UpdateSettings(ctx context.Context, appURL, token string) error
	CheckAPIStatus(ctx context.Context, appURL, token string) models.APIStatusResult
	ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error)
	SetEntitySelected(ctx context.Context, entity models.BooleanEntity, selected bool) error
	ListSelectedEntities(ctx context.Context) ([]models.BooleanEntity, error)
	ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error)
}

var (
	_ Backend = (*server.Client)(nil)
	_ Backend = localBackend{}
)

// localBackend runs the operations in-process on the stored files.
type localBackend struct {
	c *commands.Commands
}

func newLocalBackend() (localBackend, error) {
	opts := config.LoadOptions("")
	store, _, err := config.OpenStore(opts)
	if err != nil {
		return localBackend{}, err
	}
	return localBackend{c: commands.New(store, selection.New(store), nil, opts.RequestTimeout())}, nil
}

func (b localBackend) LoadSettings(context.Context) (models.ConnectionSettings, error) {
	return b.c.LoadSettings()
}

func (b localBackend) UpdateSettings(_ context.Context, appURL, token string) error {
	return b.c.UpdateSettings(appURL, token)
}

func (b localBackend) CheckAPIStatus(ctx context.Context, appURL, token string) models.APIStatusResult {
	return b.c.CheckAPIStatus(ctx, appURL, token)
}

func (b localBackend) ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error) {
	return b.c.ListSwitchEntities(ctx)
}

func (b localBackend) SetEntitySelected(_ context.Context, entity models.BooleanEntity, selected bool) error {
	return b.c.SetEntitySelected(entity, selected)
}

func (b localBackend) ListSelectedEntities(context.Context) ([]models.BooleanEntity, error) {
	return b.c.ListSelectedEntities(), nil
}

func (b localBackend) ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error) {
	return b.c.ToggleEntity(ctx, id)
}

// openBackend prefers the running daemon so it stays the only writer. The
// returned func releases the backend.
func openBackend() (Backend, func(), error) {
	record, err := config.OpenDaemonRecord()
	if err != nil {
		return nil, nil, err
	}
	running, _, err := record.Running()
	if err == nil && running {
		client, conn, err := connectDaemon()
		if err == nil {
			return client, func() { _ = conn.Close() }, nil
		}
		log.Printf("Warning: %v; using local files", err)
	}

	local, err := newLocalBackend()
	if err != nil {
		return nil, nil, err
	}
	return local, func() {}, nil
}
