package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/daemon/server"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the hatrayd agent",
	Long:  `Manage the hatrayd tray agent process.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	l, err := newLauncher()
	if err != nil {
		return err
	}

	running, info, err := l.record.Running()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		fmt.Fprintf(out, "Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	fmt.Fprint(out, "Starting daemon...")
	info, err = l.start()
	if err != nil {
		fmt.Fprintln(out)
		return err
	}
	fmt.Fprintf(out, " started (PID %d, port %d).\n", info.PID, info.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	l, err := newLauncher()
	if err != nil {
		return err
	}
	running, info, err := l.record.Running()
	if err != nil {
		return err
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Fprintln(out, "Daemon is running.")
	fmt.Fprintf(out, "  Host:       %s\n", info.Host)
	fmt.Fprintf(out, "  Port:       %d\n", info.Port)
	if info.WebPort > 0 {
		fmt.Fprintf(out, "  Web port:   %d\n", info.WebPort)
	}
	fmt.Fprintf(out, "  PID:        %d\n", info.PID)
	fmt.Fprintf(out, "  Uptime:     %s\n", uptime)
	fmt.Fprintf(out, "  Log:        %s\n", l.logPath)

	// Ask the agent itself; a stale record answers nothing.
	client, conn, err := server.Dial(info.Host, info.Port)
	if err != nil {
		return nil
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()
	if _, err := client.Status(ctx); err != nil {
		fmt.Fprintf(out, "  %s\n", styleWarning.Render("Not responding: "+err.Error()))
		return nil
	}
	selected, err := client.ListSelectedEntities(ctx)
	if err == nil {
		fmt.Fprintf(out, "  Menu:       %d entities\n", len(selected))
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	record, err := config.OpenDaemonRecord()
	if err != nil {
		return err
	}
	running, info, err := record.Running()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running.")
		return nil
	}

	// Ask over gRPC first; fall back to SIGTERM.
	if client, conn, err := server.Dial(info.Host, info.Port); err == nil {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		err = client.Shutdown(ctx)
		cancel()
		_ = conn.Close()
		if err == nil {
			return waitForStop(cmd, record)
		}
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	return waitForStop(cmd, record)
}

// waitForStop polls for shutdown (max 5 seconds).
func waitForStop(cmd *cobra.Command, record *config.DaemonRecord) error {
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := record.Running()
		if err == nil && !stillRunning {
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped.")
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
