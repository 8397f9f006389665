package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hatray/hatray/internal/commands"
	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/daemon/server"
	"github.com/hatray/hatray/internal/daemon/toggle"
	"github.com/hatray/hatray/internal/daemon/tray"
	"github.com/hatray/hatray/internal/daemon/watcher"
	"github.com/hatray/hatray/internal/selection"
)

// host is what the agent needs from the tray it runs under.
type host interface {
	tray.Host
	toggle.Notifier
}

// agent wires the stores, the menu and the server together.
type agent struct {
	opts       config.Options
	files      *config.FileStore
	record     *config.DaemonRecord
	sync       *tray.Synchronizer
	facade     *commands.Commands
	dispatcher *toggle.Dispatcher
	watcher    *watcher.Watcher
	srv        *server.Server
}

func startAgent(opts config.Options, h host) (*agent, error) {
	store, files, err := config.OpenStore(opts)
	if err != nil {
		return nil, err
	}

	a := &agent{opts: opts, files: files, record: config.NewDaemonRecord(files)}
	sel := selection.New(store)
	actions := &menuActions{agent: a, notifier: h}
	a.sync = tray.NewSynchronizer(sel, h, tray.Route(actions))
	a.facade = commands.New(store, sel, a.sync, opts.RequestTimeout())
	a.dispatcher = toggle.New(a.facade.ToggleEntity, h, opts.ToggleQueueSize)
	a.dispatcher.Start()

	a.srv, err = server.New(opts.GRPCPort, opts.WebPort, a.facade)
	if err != nil {
		a.stop()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	if err := a.record.Save(a.srv.Info()); err != nil {
		a.stop()
		return nil, fmt.Errorf("failed to write daemon info: %w", err)
	}

	// The first menu comes from the persisted selection only.
	if _, err := a.sync.Sync(); err != nil {
		a.stop()
		return nil, fmt.Errorf("failed to build menu: %w", err)
	}

	a.watcher, err = watcher.New(files.Dir())
	if err == nil {
		err = a.watcher.Start()
	}
	if err != nil {
		log.Printf("Warning: external edits will not refresh the menu: %v", err)
		if a.watcher != nil {
			a.watcher.Stop()
			a.watcher = nil
		}
	} else {
		go a.watchStore()
	}

	log.Printf("Daemon started on port %d (PID %d)", a.srv.Port(), os.Getpid())
	return a, nil
}

func (a *agent) watchStore() {
	for ev := range a.watcher.Events() {
		switch ev.Type {
		case watcher.EventSelectionChanged:
			if err := a.sync.Rebuild(); err != nil {
				log.Printf("[tray] Rebuild failed: %v", err)
			}
		case watcher.EventSettingsChanged:
			log.Printf("Connection settings changed")
		case watcher.EventOptionsChanged:
			log.Printf("Agent options changed; restart to apply")
		}
	}
}

// stop tears down whatever startAgent brought up.
func (a *agent) stop() {
	if a.srv != nil {
		a.srv.Stop()
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if err := a.record.Remove(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}
}

// runForeground runs the daemon without a system tray, blocking on signals.
func runForeground(opts config.Options) error {
	a, err := startAgent(opts, &tray.LogHost{})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	a.stop()
	fmt.Println("Daemon stopped")
	return nil
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(opts config.Options) error {
	var a *agent
	var startErr error

	onReady := func(h *tray.SystrayHost) {
		a, startErr = startAgent(opts, h)
		if startErr != nil {
			tray.Quit()
			return
		}

		// Serve gRPC in background
		go func() {
			if err := a.srv.Serve(); err != nil {
				log.Printf("Server error: %v", err)
				tray.Quit()
			}
		}()

		// Handle OS signals; quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	onExit := func() {
		if a != nil {
			a.stop()
		}
		fmt.Println("Daemon stopped")
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(opts.MenuSlots, onReady, onExit)
	return startErr
}
