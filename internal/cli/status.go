package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hatray/hatray/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the connection to Home Assistant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := commandContext(cmd)
		settings, err := backend.LoadSettings(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		result := backend.CheckAPIStatus(ctx, settings.AppURL, settings.Token)
		printStatus(out, result)
		if !result.IsOnline() {
			if !settings.IsConfigured() {
				fmt.Fprintln(out, styleHint.Render("No hub configured. Run `hatray settings set --url <url> --token <token>`."))
			}
			return fmt.Errorf("home assistant is offline")
		}
		return nil
	},
}

func printStatus(out io.Writer, result models.APIStatusResult) {
	if result.IsOnline() {
		fmt.Fprintf(out, "%s %s\n", styleSuccess.Render("Online"), result.Message)
		return
	}
	fmt.Fprintf(out, "%s %s\n", styleError.Render("Offline"), result.Message)
}
