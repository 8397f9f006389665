package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatray/hatray/internal/config"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		want   EventType
		wantOK bool
	}{
		{config.EntitiesFileName, EventSelectionChanged, true},
		{config.SettingsFileName, EventSettingsChanged, true},
		{config.OptionsFileName, EventOptionsChanged, true},
		{".entities.yaml.tmp123", 0, false},
		{config.DaemonKey + ".yaml", 0, false},
		{config.DaemonLogFileName, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(filepath.Join("/home", tt.name))
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("classify(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWatcher_SelectionChanged(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.delay = 10 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	store := config.NewFileStore(dir)
	if err := store.Set(config.EntitiesKey, map[string]string{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case ev := <-w.Events():
		if ev.Type != EventSelectionChanged {
			t.Fatalf("event type = %v, want %v", ev.Type, EventSelectionChanged)
		}
		if filepath.Base(ev.Path) != config.EntitiesFileName {
			t.Fatalf("event path = %s", ev.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after rewriting entities file")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.delay = 10 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestStop_ClosesEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.delay = time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range w.Events() {
		}
	}()

	// Rewrites racing Stop must neither panic nor keep the consumer alive.
	store := config.NewFileStore(dir)
	for i := 0; i < 5; i++ {
		if err := store.Set(config.EntitiesKey, map[string]int{"n": i}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	w.Stop()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("Events not closed after Stop")
	}
}
