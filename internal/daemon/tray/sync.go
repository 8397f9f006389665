package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/hatray/hatray/internal/models"
)

// Source supplies the selected entities a menu is built from.
type Source interface {
	List() []models.BooleanEntity
}

// Handle is a live menu whose contents can be replaced in place. The
// synchronizer mutates a handle but never owns its platform resource.
type Handle interface {
	Apply(spec Spec) error
}

// Host creates menu handles. onClick receives the id of a clicked entry.
type Host interface {
	Create(spec Spec, onClick func(id string)) (Handle, error)
}

// Synchronizer keeps a menu handle in step with the selection. The handle is
// either absent (never built) or built; once built it is only ever updated.
type Synchronizer struct {
	source  Source
	host    Host
	onClick func(id string)

	mu     sync.Mutex
	handle Handle
	spec   Spec
}

// NewSynchronizer creates a synchronizer with no menu built yet.
func NewSynchronizer(source Source, host Host, onClick func(id string)) *Synchronizer {
	return &Synchronizer{source: source, host: host, onClick: onClick}
}

// Handle returns the live handle, if one has been built.
func (s *Synchronizer) Handle() (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle, s.handle != nil
}

// Spec returns the spec most recently applied to the handle.
func (s *Synchronizer) Spec() Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Spec(nil), s.spec...)
}

// Sync recomputes the menu and applies it, creating the handle on first use.
// An existing handle keeps its identity; only its contents change.
func (s *Synchronizer) Sync() (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec := BuildSpec(s.source.List())

	if s.handle == nil {
		handle, err := s.host.Create(spec, s.onClick)
		if err != nil {
			return nil, fmt.Errorf("create menu: %w", err)
		}
		s.handle = handle
		s.spec = spec
		log.Printf("[tray] Menu built with %d entities", len(spec.Entities()))
		return handle, nil
	}

	if err := s.apply(spec); err != nil {
		return nil, err
	}
	return s.handle, nil
}

// Rebuild recomputes the menu only if a handle already exists. With no
// handle it does nothing.
func (s *Synchronizer) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	return s.apply(BuildSpec(s.source.List()))
}

// apply must be called with s.mu held.
func (s *Synchronizer) apply(spec Spec) error {
	if err := s.handle.Apply(spec); err != nil {
		return fmt.Errorf("update menu: %w", err)
	}
	s.spec = spec
	log.Printf("[tray] Menu updated with %d entities", len(spec.Entities()))
	return nil
}
