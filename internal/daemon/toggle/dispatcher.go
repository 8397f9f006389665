// Package toggle runs menu-triggered toggles off the click path.
package toggle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/hatray/hatray/internal/models"
)

// ErrQueueFull is returned by Submit when the queue has no room.
var ErrQueueFull = errors.New("toggle queue full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("toggle dispatcher stopped")

// ToggleFunc performs one toggle against the hub.
type ToggleFunc func(ctx context.Context, entityID string) ([]models.ToggleResult, error)

// Notifier surfaces a short user-visible message.
type Notifier interface {
	Notify(message string)
}

// Result is the outcome of one task.
type Result struct {
	TaskID   string
	EntityID string
	States   []models.ToggleResult
	Err      error
}

// Message is the text shown to the user for r.
func (r Result) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("Toggle %s failed: %v", r.EntityID, r.Err)
	}
	for _, s := range r.States {
		if s.EntityID == r.EntityID {
			name := s.FriendlyName()
			if name == "" {
				name = s.EntityID
			}
			return fmt.Sprintf("%s is %s", name, s.State)
		}
	}
	return fmt.Sprintf("Toggled %s", r.EntityID)
}

type task struct {
	id       string
	entityID string
}

// Dispatcher queues toggles and runs them one at a time on a worker
// goroutine. Each submitted task runs at most once.
type Dispatcher struct {
	toggle   ToggleFunc
	notifier Notifier
	queue    chan task

	mu      sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnResult, if set, is called after each task completes.
	OnResult func(Result)
}

// New creates a dispatcher with room for size pending tasks. notifier may be nil.
func New(toggle ToggleFunc, notifier Notifier, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		toggle:   toggle,
		notifier: notifier,
		queue:    make(chan task, size),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Submit enqueues a toggle and returns its task id without waiting for it.
// A full queue rejects the task and reports the rejection.
func (d *Dispatcher) Submit(entityID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return "", ErrStopped
	}

	t := task{id: uuid.New().String(), entityID: entityID}
	select {
	case d.queue <- t:
		log.Printf("[toggle] Queued %s (task %s)", entityID, t.id)
		return t.id, nil
	default:
		d.report(Result{TaskID: t.id, EntityID: entityID, Err: ErrQueueFull})
		return "", ErrQueueFull
	}
}

// Stop rejects new tasks, cancels the one in flight and waits for the worker.
// Queued tasks that have not started are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for t := range d.queue {
		if d.ctx.Err() != nil {
			log.Printf("[toggle] Dropped %s (task %s)", t.entityID, t.id)
			continue
		}
		states, err := d.toggle(d.ctx, t.entityID)
		d.report(Result{TaskID: t.id, EntityID: t.entityID, States: states, Err: err})
	}
}

func (d *Dispatcher) report(r Result) {
	msg := r.Message()
	log.Printf("[toggle] %s (task %s)", msg, r.TaskID)
	if d.notifier != nil {
		d.notifier.Notify(msg)
	}
	if d.OnResult != nil {
		d.OnResult(r)
	}
}
