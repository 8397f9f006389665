package tui

import "github.com/hatray/hatray/internal/models"

// EntitiesLoadedMsg carries the hub entities and the current selection.
type EntitiesLoadedMsg struct {
	Entities []models.BooleanEntity
	Selected []models.BooleanEntity
	Err      error
}

// SelectionSavedMsg reports the outcome of a select/deselect.
type SelectionSavedMsg struct {
	ID       string
	Selected bool
	Err      error
}
