package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hatray/hatray/internal/models"
)

var entitiesCmd = &cobra.Command{
	Use:     "entities",
	Aliases: []string{"ls"},
	Short:   "List the hub's switch entities",
	Args:    cobra.NoArgs,
	RunE:    runEntities,
}

var selectCmd = &cobra.Command{
	Use:   "select <entity-id>",
	Short: "Add a switch to the tray menu",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSelected(cmd, args[0], true)
	},
}

var deselectCmd = &cobra.Command{
	Use:   "deselect <entity-id>",
	Short: "Remove a switch from the tray menu",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSelected(cmd, args[0], false)
	},
}

var selectedCmd = &cobra.Command{
	Use:   "selected",
	Short: "List the switches in the tray menu",
	Args:  cobra.NoArgs,
	RunE:  runSelected,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <entity-id>",
	Short: "Toggle a switch",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runEntities(cmd *cobra.Command, args []string) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := commandContext(cmd)
	entities, err := backend.ListSwitchEntities(ctx)
	if err != nil {
		return err
	}
	selected, err := backend.ListSelectedEntities(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entities) == 0 {
		fmt.Fprintln(out, "No switch entities found.")
		return nil
	}

	inMenu := make(map[string]bool, len(selected))
	for _, e := range selected {
		inMenu[e.ID] = true
	}
	for _, e := range entities {
		mark := "[ ]"
		if inMenu[e.ID] {
			mark = styleSuccess.Render("[x]")
		}
		fmt.Fprintf(out, "%s %s\n", mark, formatEntity(e))
	}
	return nil
}

func runSetSelected(cmd *cobra.Command, id string, selected bool) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := commandContext(cmd)
	entity := models.BooleanEntity{ID: id}
	if selected {
		entity, err = findEntity(ctx, backend, id)
		if err != nil {
			return err
		}
	}

	if err := backend.SetEntitySelected(ctx, entity, selected); err != nil {
		return err
	}

	verb := "Removed"
	if selected {
		verb = "Added"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render(verb), entity.Label())
	return nil
}

// findEntity looks id up on the hub so the stored entry carries its name
// and state.
func findEntity(ctx context.Context, backend Backend, id string) (models.BooleanEntity, error) {
	entities, err := backend.ListSwitchEntities(ctx)
	if err != nil {
		return models.BooleanEntity{}, err
	}
	for _, e := range entities {
		if e.ID == id {
			return e, nil
		}
	}
	return models.BooleanEntity{}, fmt.Errorf("no available switch %q on the hub", id)
}

func runSelected(cmd *cobra.Command, args []string) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	selected, err := backend.ListSelectedEntities(commandContext(cmd))
	if err != nil {
		return err
	}
	printEntities(cmd.OutOrStdout(), selected, "No switches in the menu.")
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := backend.ToggleEntity(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "Toggled %s\n", args[0])
		return nil
	}
	for _, r := range results {
		name := r.FriendlyName()
		if name == "" {
			name = r.EntityID
		}
		fmt.Fprintf(out, "%s is %s\n", name, styleValue.Render(r.State))
	}
	return nil
}

func printEntities(out io.Writer, entities []models.BooleanEntity, empty string) {
	if len(entities) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	for _, e := range entities {
		fmt.Fprintln(out, formatEntity(e))
	}
}

func formatEntity(e models.BooleanEntity) string {
	line := fmt.Sprintf("%s %s", styleValue.Render(e.Label()), styleHint.Render(e.ID))
	if e.State != "" {
		line += " " + styleLabel.Render(e.State)
	}
	return line
}
