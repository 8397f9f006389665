// Package cmd implements the hatrayd command line.
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hatray/hatray/internal/config"
)

var (
	foreground bool
	port       int
	webPort    int
)

var rootCmd = &cobra.Command{
	Use:           "hatrayd",
	Short:         "Home Assistant switches in the system tray",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.SetPrefix("[hatrayd] ")
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

		// Ensure global directory exists
		if err := config.EnsureGlobalDir(); err != nil {
			return fmt.Errorf("failed to create global directory: %w", err)
		}

		// Check if daemon is already running
		record, err := config.OpenDaemonRecord()
		if err != nil {
			return err
		}
		running, info, err := record.Running()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if running {
			return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
		}

		opts := config.LoadOptions("")
		if cmd.Flags().Changed("port") {
			opts.GRPCPort = port
		}
		if cmd.Flags().Changed("web-port") {
			opts.WebPort = webPort
		}

		if foreground {
			log.Println("Running in foreground mode (no system tray)")
			return runForeground(opts)
		}
		log.Println("Running in background mode (with system tray)")
		return runWithTray(opts)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground without a tray (for development)")
	rootCmd.Flags().IntVar(&port, "port", 0, "gRPC port (0 for dynamic allocation)")
	rootCmd.Flags().IntVar(&webPort, "web-port", 0, "grpc-web port (0 disables)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		return err
	}
	return nil
}
