// Package tui implements the interactive entity picker.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hatray/hatray/internal/models"
)

// Backend is what the picker reads and writes the selection through.
type Backend interface {
	ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error)
	ListSelectedEntities(ctx context.Context) ([]models.BooleanEntity, error)
	SetEntitySelected(ctx context.Context, entity models.BooleanEntity, selected bool) error
}

// Run launches the picker and blocks until the user quits.
func Run(backend Backend) error {
	p := tea.NewProgram(NewPicker(backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
