package tray

import (
	_ "embed"
	"errors"
	"log"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/getlantern/systray"
)

//go:embed icon.png
var iconData []byte

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onReady receives the host once the tray is up; onExit is called when the
// tray exits (cleanup here).
func Run(slots int, onReady func(host *SystrayHost), onExit func()) {
	systray.Run(func() {
		systray.SetTemplateIcon(iconData, iconData)
		systray.SetTooltip("hatray")
		if onReady != nil {
			onReady(&SystrayHost{slots: slots})
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

// SystrayHost builds a single menu on the platform tray. systray items can be
// hidden but never removed, so entity entries live in a fixed pool of slots
// between Settings and Quit.
type SystrayHost struct {
	slots int

	mu   sync.Mutex
	menu *systrayMenu
}

// Ensure SystrayHost implements Host at compile time.
var _ Host = (*SystrayHost)(nil)

// Notify shows a short status message as the tray tooltip and a desktop
// notification.
func (h *SystrayHost) Notify(message string) {
	systray.SetTooltip("hatray: " + message)
	if err := beeep.Notify("hatray", message, ""); err != nil {
		log.Printf("[tray] Notification failed: %v", err)
	}
}

// Create implements Host. The tray has exactly one menu.
func (h *SystrayHost) Create(spec Spec, onClick func(id string)) (Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.menu != nil {
		return nil, errors.New("tray menu already created")
	}

	m := &systrayMenu{
		onClick: onClick,
		slots:   make([]*systray.MenuItem, h.slots),
		slotIDs: make([]string, h.slots),
	}
	m.settings = systray.AddMenuItem(SettingsLabel, "Open settings")
	systray.AddSeparator()
	for i := range m.slots {
		m.slots[i] = systray.AddMenuItem("", "")
		m.slots[i].Hide()
	}
	systray.AddSeparator()
	m.quit = systray.AddMenuItem(QuitLabel, "Quit hatray")

	go m.watch(m.settings, func() string { return SettingsID })
	go m.watch(m.quit, func() string { return QuitID })
	for i := range m.slots {
		slot := i
		go m.watch(m.slots[slot], func() string { return m.slotID(slot) })
	}

	if err := m.Apply(spec); err != nil {
		return nil, err
	}
	h.menu = m
	return m, nil
}

// systrayMenu is the Handle for the platform menu.
type systrayMenu struct {
	onClick  func(id string)
	settings *systray.MenuItem
	quit     *systray.MenuItem

	mu      sync.RWMutex
	slots   []*systray.MenuItem
	slotIDs []string
}

// Apply implements Handle by retitling slots in place.
func (m *systrayMenu) Apply(spec Spec) error {
	if len(spec) < 2 {
		return errors.New("menu spec missing fixed entries")
	}

	entities := spec.Entities()
	if len(entities) > len(m.slots) {
		log.Printf("[tray] %d entities selected, only %d shown", len(entities), len(m.slots))
		entities = entities[:len(m.slots)]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.SetTitle(spec[0].Label)
	m.quit.SetTitle(spec[len(spec)-1].Label)

	for i, item := range m.slots {
		if i < len(entities) {
			m.slotIDs[i] = entities[i].ID
			item.SetTitle(entities[i].Label)
			item.SetTooltip(entities[i].ID)
			item.Show()
			continue
		}
		m.slotIDs[i] = ""
		item.Hide()
	}
	return nil
}

func (m *systrayMenu) slotID(slot int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slotIDs[slot]
}

func (m *systrayMenu) watch(item *systray.MenuItem, id func() string) {
	for range item.ClickedCh {
		if entryID := id(); entryID != "" && m.onClick != nil {
			m.onClick(entryID)
		}
	}
}
