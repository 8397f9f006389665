package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/hatray/hatray/internal/models"
)

const requestTimeout = 15 * time.Second

type item struct {
	entity   models.BooleanEntity
	selected bool
	saving   bool
}

// Picker lists the hub's switches and toggles their menu membership.
type Picker struct {
	backend Backend
	spinner spinner.Model

	loading bool
	items   []item
	cursor  int
	err     error
	width   int
}

// NewPicker creates a picker; data loads on Init.
func NewPicker(backend Backend) Picker {
	return Picker{
		backend: backend,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading: true,
	}
}

// Init returns the initial commands.
func (m Picker) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Picker) load() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		entities, err := backend.ListSwitchEntities(ctx)
		if err != nil {
			return EntitiesLoadedMsg{Err: err}
		}
		selected, err := backend.ListSelectedEntities(ctx)
		if err != nil {
			return EntitiesLoadedMsg{Err: err}
		}
		return EntitiesLoadedMsg{Entities: entities, Selected: selected}
	}
}

func (m Picker) save(entity models.BooleanEntity, selected bool) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := backend.SetEntitySelected(ctx, entity, selected)
		return SelectionSavedMsg{ID: entity.ID, Selected: selected, Err: err}
	}
}

// Update processes messages and returns an updated model and commands.
func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.anySaving() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EntitiesLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.items = mergeSelection(msg.Entities, msg.Selected)
			if m.cursor >= len(m.items) {
				m.cursor = max(len(m.items)-1, 0)
			}
		}
		return m, nil

	case SelectionSavedMsg:
		m.err = msg.Err
		for i := range m.items {
			if m.items[i].entity.ID != msg.ID {
				continue
			}
			m.items[i].saving = false
			if msg.Err == nil {
				m.items[i].selected = msg.Selected
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, pickerKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, pickerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, pickerKeys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, pickerKeys.Refresh):
		if !m.loading {
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.load())
		}
	case key.Matches(msg, pickerKeys.Toggle):
		if m.loading || len(m.items) == 0 || m.items[m.cursor].saving {
			return m, nil
		}
		it := &m.items[m.cursor]
		it.saving = true
		return m, tea.Batch(m.spinner.Tick, m.save(it.entity, !it.selected))
	}
	return m, nil
}

func (m Picker) anySaving() bool {
	for _, it := range m.items {
		if it.saving {
			return true
		}
	}
	return false
}

// mergeSelection marks hub entities that are already selected. Selected
// entities the hub no longer reports are kept so they can be removed.
func mergeSelection(entities, selected []models.BooleanEntity) []item {
	chosen := make(map[string]bool, len(selected))
	for _, e := range selected {
		chosen[e.ID] = true
	}

	items := make([]item, 0, len(entities)+len(selected))
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		seen[e.ID] = true
		items = append(items, item{entity: e, selected: chosen[e.ID]})
	}
	for _, e := range selected {
		if !seen[e.ID] {
			items = append(items, item{entity: e, selected: true})
		}
	}
	return items
}

// View renders the picker.
func (m Picker) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tray entities"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		fmt.Fprintf(&b, "  %s Loading switches...\n", m.spinner.View())
	case len(m.items) == 0 && m.err == nil:
		b.WriteString("  No switch entities found.\n")
	default:
		for i, it := range m.items {
			b.WriteString(m.renderItem(i, it))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  " + helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Picker) renderItem(i int, it item) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	box := "[ ]"
	switch {
	case it.saving:
		box = "[" + m.spinner.View() + "]"
	case it.selected:
		box = selectedStyle.Render("[x]")
	}

	line := fmt.Sprintf("%s%s %s %s", cursor, box, it.entity.Label(), idStyle.Render(it.entity.ID))
	if it.entity.State != "" {
		line += idStyle.Render(" (" + it.entity.State + ")")
	}
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

func helpLine() string {
	parts := make([]string, 0, len(helpBindings))
	for _, b := range helpBindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
