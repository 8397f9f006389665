// Package watcher watches the agent home for edits made outside the daemon.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hatray/hatray/internal/config"
)

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventSelectionChanged EventType = iota // entities.yaml rewritten
	EventSettingsChanged                   // settings.yaml rewritten
	EventOptionsChanged                    // agent.toml rewritten
)

func (t EventType) String() string {
	switch t {
	case EventSelectionChanged:
		return "selection"
	case EventSettingsChanged:
		return "settings"
	case EventOptionsChanged:
		return "options"
	default:
		return "unknown"
	}
}

// DefaultDebounce is how long a path must be quiet before its event fires.
const DefaultDebounce = 100 * time.Millisecond

// Event represents a file system change event.
type Event struct {
	Type EventType
	Path string
}

// Watcher watches one directory for changes to the agent's files.
type Watcher struct {
	dir        string
	delay      time.Duration
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	sendMu     sync.RWMutex
	closed     bool
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher for dir. Start must be called to begin watching.
func New(dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:        dir,
		delay:      DefaultDebounce,
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start adds the watch and starts processing events.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}
	log.Printf("[watcher] Watching %s", w.dir)

	go w.processEvents()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()

		// Pending emits return once done is closed.
		w.sendMu.Lock()
		w.closed = true
		close(w.eventsChan)
		w.sendMu.Unlock()
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] Error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Atomic saves land as Create or Rename on the target name.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	eventType, ok := classify(event.Name)
	if !ok {
		return
	}

	w.debounceEvent(event.Name, func() {
		w.emit(Event{Type: eventType, Path: event.Name})
	})
}

// classify maps a file name to its event type. Temp files and unrelated
// files are ignored.
func classify(path string) (EventType, bool) {
	switch filepath.Base(path) {
	case config.EntitiesFileName:
		return EventSelectionChanged, true
	case config.SettingsFileName:
		return EventSettingsChanged, true
	case config.OptionsFileName:
		return EventOptionsChanged, true
	default:
		return 0, false
	}
}

func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) emit(event Event) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return
	}

	select {
	case <-w.done:
	case w.eventsChan <- event:
		log.Printf("[watcher] %s changed: %s", event.Type, event.Path)
	}
}
