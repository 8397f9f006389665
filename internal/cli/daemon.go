package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/models"
)

const (
	// daemonBinary is the agent executable name.
	daemonBinary = "hatrayd"

	// DaemonEnv names an explicit hatrayd executable.
	DaemonEnv = "HATRAY_DAEMON"
)

// launcher starts hatrayd in the background and waits for it to register.
type launcher struct {
	record  *config.DaemonRecord
	logPath string
	timeout time.Duration
}

func newLauncher() (*launcher, error) {
	record, err := config.OpenDaemonRecord()
	if err != nil {
		return nil, err
	}
	logPath, err := config.GlobalDaemonLogFile()
	if err != nil {
		return nil, err
	}
	return &launcher{record: record, logPath: logPath, timeout: 5 * time.Second}, nil
}

// ensureDaemon makes sure the agent is running, starting it if necessary.
func ensureDaemon() error {
	l, err := newLauncher()
	if err != nil {
		return err
	}
	_, _, err = l.ensure()
	return err
}

// ensure returns the live agent's record, starting the agent first when none
// is registered. started reports whether this call spawned it.
func (l *launcher) ensure() (info *models.DaemonInfo, started bool, err error) {
	running, info, err := l.record.Running()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return info, false, nil
	}
	info, err = l.start()
	return info, err == nil, err
}

// start spawns hatrayd with its output appended to the daemon log. It
// returns once the spawned process has saved its record, and fails early if
// the process exits first.
func (l *launcher) start() (*models.DaemonInfo, error) {
	path, err := findDaemonBinary()
	if err != nil {
		return nil, err
	}
	if err := config.EnsureGlobalDir(); err != nil {
		return nil, fmt.Errorf("failed to create global directory: %w", err)
	}

	logFile, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open daemon log: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	cmd := exec.Command(path)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start daemon: %w", err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(l.timeout)

	for {
		select {
		case err := <-exited:
			if err == nil {
				err = errors.New("exit status 0")
			}
			return nil, fmt.Errorf("%s exited during startup (%v); see %s", daemonBinary, err, l.logPath)
		case <-deadline:
			return nil, fmt.Errorf("%s did not register within %s; see %s", daemonBinary, l.timeout, l.logPath)
		case <-ticker.C:
			info, err := l.record.Load()
			if err == nil && info != nil && info.PID == cmd.Process.Pid {
				return info, nil
			}
		}
	}
}

// findDaemonBinary resolves hatrayd from $HATRAY_DAEMON, then next to the
// running executable, then PATH.
func findDaemonBinary() (string, error) {
	if path := os.Getenv(DaemonEnv); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s: %w", DaemonEnv, err)
		}
		return path, nil
	}

	if execPath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(execPath), daemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	path, err := exec.LookPath(daemonBinary)
	if err != nil {
		return "", fmt.Errorf("%s not found; install it next to hatray or set %s", daemonBinary, DaemonEnv)
	}
	return path, nil
}
