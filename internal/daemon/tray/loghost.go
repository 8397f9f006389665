package tray

import (
	"log"
	"strings"
	"sync"
)

// LogHost is a Host for running without a tray. It records the applied menu
// and logs every change.
type LogHost struct {
	mu      sync.Mutex
	spec    Spec
	onClick func(id string)
}

// Ensure LogHost implements Host and Handle at compile time.
var (
	_ Host   = (*LogHost)(nil)
	_ Handle = (*LogHost)(nil)
)

// Create implements Host; the host itself is the handle.
func (h *LogHost) Create(spec Spec, onClick func(id string)) (Handle, error) {
	h.mu.Lock()
	h.onClick = onClick
	h.mu.Unlock()
	return h, h.Apply(spec)
}

// Apply implements Handle.
func (h *LogHost) Apply(spec Spec) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spec = append(Spec(nil), spec...)
	log.Printf("[tray] Menu: %s", strings.Join(spec.IDs(), ", "))
	return nil
}

// Spec returns the most recently applied menu.
func (h *LogHost) Spec() Spec {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append(Spec(nil), h.spec...)
}

// Click simulates a click on the entry with the given id.
func (h *LogHost) Click(id string) {
	h.mu.Lock()
	onClick := h.onClick
	h.mu.Unlock()
	if onClick != nil {
		onClick(id)
	}
}

// Notify logs a status message.
func (h *LogHost) Notify(message string) {
	log.Printf("[tray] %s", message)
}
