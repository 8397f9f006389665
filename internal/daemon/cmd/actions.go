package cmd

import (
	"fmt"
	"log"

	"github.com/hatray/hatray/internal/daemon/server"
	"github.com/hatray/hatray/internal/daemon/toggle"
)

// menuActions implements tray.Actions for the running agent.
type menuActions struct {
	agent    *agent
	notifier toggle.Notifier
}

// OpenSettings points the user at the settings surfaces.
func (m *menuActions) OpenSettings() {
	msg := "Run `hatray settings set` to configure"
	if srv := m.agent.srv; srv != nil && srv.Info().WebPort > 0 {
		msg = fmt.Sprintf("Settings at http://%s:%d", server.Host, srv.Info().WebPort)
	}
	log.Printf("[tray] %s", msg)
	m.notifier.Notify(msg)
}

// Toggle hands the toggle to the dispatcher; it never blocks the click.
func (m *menuActions) Toggle(entityID string) {
	if _, err := m.agent.dispatcher.Submit(entityID); err != nil {
		log.Printf("[tray] Toggle %s not queued: %v", entityID, err)
	}
}

// RequestShutdown stops the agent the same way a signal does.
func (m *menuActions) RequestShutdown() {
	go server.RequestShutdown()
}
