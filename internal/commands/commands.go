// Package commands is the operation surface shared by the tray, the gRPC
// server and the CLI. Every operation reports failure as a single Error
// string; richer errors stay inside the packages below it.
package commands

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/daemon/tray"
	"github.com/hatray/hatray/internal/homeassistant"
	"github.com/hatray/hatray/internal/models"
	"github.com/hatray/hatray/internal/selection"
)

// Offline messages for failures before the status request is sent.
const (
	MsgLoadSettings   = "Unable to load Home Assistant settings."
	MsgUpdateSettings = "Unable to update settings."
)

// Error is a flattened operation failure.
type Error string

func (e Error) Error() string { return string(e) }

func flatten(op string, err error) error {
	log.Printf("[commands] %s: %v", op, err)
	return Error(err.Error())
}

// Menu is the tray menu that follows the selection.
type Menu interface {
	Sync() (tray.Handle, error)
}

// Commands implements the agent operations over one store.
type Commands struct {
	store     config.Store
	selection *selection.Store
	menu      Menu
	timeout   time.Duration
}

// New creates the operation set. menu may be nil when no tray is running.
func New(store config.Store, sel *selection.Store, menu Menu, timeout time.Duration) *Commands {
	return &Commands{store: store, selection: sel, menu: menu, timeout: timeout}
}

func (c *Commands) session() (*homeassistant.Session, error) {
	return homeassistant.Load(c.store, c.timeout)
}

// LoadSettings returns the persisted connection settings, empty if none.
func (c *Commands) LoadSettings() (models.ConnectionSettings, error) {
	s, err := c.session()
	if err != nil {
		return models.ConnectionSettings{}, flatten("load settings", err)
	}
	return s.Settings(), nil
}

// UpdateSettings persists new connection settings without checking them.
func (c *Commands) UpdateSettings(appURL, token string) error {
	s, err := c.session()
	if err != nil {
		return flatten("load settings", err)
	}
	if err := s.UpdateSettings(appURL, token); err != nil {
		return flatten("update settings", err)
	}
	return nil
}

// CheckAPIStatus saves the given settings and then checks the hub with them.
// The first failing step decides the result.
func (c *Commands) CheckAPIStatus(ctx context.Context, appURL, token string) models.APIStatusResult {
	s, err := c.session()
	if err != nil {
		log.Printf("[commands] check status: %v", err)
		return models.Offline(MsgLoadSettings)
	}
	if err := s.UpdateSettings(appURL, token); err != nil {
		log.Printf("[commands] check status: %v", err)
		return models.Offline(MsgUpdateSettings)
	}
	return s.CheckStatus(ctx)
}

// ListSwitchEntities returns the hub's available switch entities.
func (c *Commands) ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error) {
	s, err := c.session()
	if err != nil {
		return nil, flatten("list entities", err)
	}
	entities, err := s.ListSwitchEntities(ctx)
	if err != nil {
		return nil, flatten("list entities", err)
	}
	return entities, nil
}

// SetEntitySelected adds or removes an entity from the selection and then
// brings the menu in line with it.
func (c *Commands) SetEntitySelected(entity models.BooleanEntity, selected bool) error {
	if !homeassistant.IsSwitchEntity(entity.ID) {
		return Error(fmt.Sprintf("not a switch entity: %q", entity.ID))
	}
	if err := c.selection.SetSelected(entity, selected); err != nil {
		return flatten("set selected", err)
	}
	if c.menu == nil {
		return nil
	}
	if _, err := c.menu.Sync(); err != nil {
		return flatten("sync menu", err)
	}
	return nil
}

// ListSelectedEntities returns the selection in menu order.
func (c *Commands) ListSelectedEntities() []models.BooleanEntity {
	return c.selection.List()
}

// ToggleEntity toggles one entity and waits for the hub's reply.
func (c *Commands) ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error) {
	id = strings.TrimSpace(id)
	s, err := c.session()
	if err != nil {
		return nil, flatten("toggle", err)
	}
	results, err := s.ToggleEntity(ctx, id)
	if err != nil {
		return nil, flatten("toggle", err)
	}
	return results, nil
}
