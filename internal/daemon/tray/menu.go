// Package tray implements the system tray menu for the agent.
package tray

import "github.com/hatray/hatray/internal/models"

// Reserved entry ids. Entity ids are always domain-prefixed ("switch.x"),
// so they never collide with these.
const (
	SettingsID = "settings"
	QuitID     = "quit"
)

// Fixed entry labels.
const (
	SettingsLabel = "Settings"
	QuitLabel     = "Quit"
)

// Entry is one clickable menu item.
type Entry struct {
	ID    string
	Label string
}

// Spec is the ordered menu: Settings, one entry per selected entity, Quit.
type Spec []Entry

// BuildSpec derives the menu from the selected entities, preserving their order.
func BuildSpec(entities []models.BooleanEntity) Spec {
	spec := make(Spec, 0, len(entities)+2)
	spec = append(spec, Entry{ID: SettingsID, Label: SettingsLabel})
	for _, e := range entities {
		spec = append(spec, Entry{ID: e.ID, Label: e.Label()})
	}
	return append(spec, Entry{ID: QuitID, Label: QuitLabel})
}

// Entities returns the entity entries, without the fixed leading and
// trailing items.
func (s Spec) Entities() []Entry {
	if len(s) < 2 {
		return nil
	}
	return s[1 : len(s)-1]
}

// IDs returns the entry ids in order.
func (s Spec) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}
