package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store is durable key-value persistence for agent state. Values are read
// and written whole; there are no field-level updates.
type Store interface {
	// Get decodes the value stored under key into v. found is false, with a
	// nil error, when nothing has been stored yet.
	Get(key string, v any) (found bool, err error)
	// Set encodes v and persists it under key before returning.
	Set(key string, v any) error
}

// PersistenceError reports a store that could not be read, parsed, or written.
type PersistenceError struct {
	Op  string // "read" | "parse" | "write" | "delete"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is a PersistenceError caused by a document
// that exists but cannot be parsed.
func IsCorrupt(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr) && perr.Op == "parse"
}

// FileStore persists each key as <dir>/<key>.yaml.
type FileStore struct {
	dir string
}

// Ensure FileStore implements Store at compile time.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// OpenGlobalStore returns the store rooted at the agent home directory.
func OpenGlobalStore() (*FileStore, error) {
	dir, err := GlobalDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(dir), nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".yaml")
}

// Get implements Store.
func (s *FileStore) Get(key string, v any) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, &PersistenceError{Op: "read", Key: key, Err: err}
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return true, &PersistenceError{Op: "parse", Key: key, Err: err}
	}
	return true, nil
}

// Set implements Store.
func (s *FileStore) Set(key string, v any) error {
	if err := validateKey(key); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	if err := SaveYAML(s.Path(key), v); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// Delete removes the document stored under key. Deleting an absent key is
// not an error.
func (s *FileStore) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
