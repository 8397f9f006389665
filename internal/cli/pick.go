package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/hatray/hatray/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose tray switches interactively",
	Long: `Open an interactive list of the hub's switches. The agent is started
first if needed so that the tray follows each change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDaemon(); err != nil {
			log.Printf("Warning: %v; changes will show in the tray on next start", err)
		}

		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		return tui.Run(backend)
	},
}
