package toggle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hatray/hatray/internal/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func TestSubmit_ReturnsBeforeToggleCompletes(t *testing.T) {
	release := make(chan struct{})
	toggle := func(ctx context.Context, id string) ([]models.ToggleResult, error) {
		<-release
		return []models.ToggleResult{{
			EntityID:   id,
			State:      "on",
			Attributes: map[string]any{"friendly_name": "Lamp"},
		}}, nil
	}

	notifier := &recordingNotifier{}
	d := New(toggle, notifier, 4)
	results := make(chan Result, 1)
	d.OnResult = func(r Result) { results <- r }
	d.Start()
	defer d.Stop()

	id, err := d.Submit("switch.lamp")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("Submit returned empty task id")
	}

	select {
	case r := <-results:
		t.Fatalf("result %+v reported before toggle completed", r)
	default:
	}

	close(release)
	select {
	case r := <-results:
		if r.TaskID != id || r.Err != nil {
			t.Fatalf("result = %+v, want task %s without error", r, id)
		}
		if got, want := r.Message(), "Lamp is on"; got != want {
			t.Fatalf("Message = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
	if got := notifier.all(); len(got) != 1 || got[0] != "Lamp is on" {
		t.Fatalf("notifications = %q", got)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	toggle := func(ctx context.Context, id string) ([]models.ToggleResult, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}

	notifier := &recordingNotifier{}
	d := New(toggle, notifier, 1)
	d.Start()
	defer d.Stop()
	defer close(release)

	if _, err := d.Submit("switch.a"); err != nil {
		t.Fatalf("Submit a: %v", err)
	}
	<-started
	if _, err := d.Submit("switch.b"); err != nil {
		t.Fatalf("Submit b: %v", err)
	}
	if _, err := d.Submit("switch.c"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Submit c error = %v, want %v", err, ErrQueueFull)
	}
	if got := notifier.all(); len(got) != 1 {
		t.Fatalf("notifications = %q, want one rejection", got)
	}
}

func TestSubmit_AfterStop(t *testing.T) {
	d := New(func(context.Context, string) ([]models.ToggleResult, error) { return nil, nil }, nil, 1)
	d.Start()
	d.Stop()
	d.Stop()

	if _, err := d.Submit("switch.a"); !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit error = %v, want %v", err, ErrStopped)
	}
}

func TestResultMessage(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want string
	}{
		{
			name: "error",
			r:    Result{EntityID: "switch.a", Err: errors.New("boom")},
			want: "Toggle switch.a failed: boom",
		},
		{
			name: "state without name",
			r:    Result{EntityID: "switch.a", States: []models.ToggleResult{{EntityID: "switch.a", State: "off"}}},
			want: "switch.a is off",
		},
		{
			name: "no matching state",
			r:    Result{EntityID: "switch.a"},
			want: "Toggled switch.a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Message(); got != tt.want {
				t.Fatalf("Message = %q, want %q", got, tt.want)
			}
		})
	}
}
