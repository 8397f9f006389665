package config

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/hatray/hatray/internal/models"
)

// Keyring entry holding the access token.
const (
	KeyringService = "hatray"
	KeyringUser    = "home-assistant-token"
)

// KeyringStore keeps the access token in the OS keyring and everything else
// in the wrapped store. The settings document is written with an empty token.
type KeyringStore struct {
	Store
}

// Ensure KeyringStore implements Store at compile time.
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore wraps inner.
func NewKeyringStore(inner Store) *KeyringStore {
	return &KeyringStore{Store: inner}
}

// Get implements Store. A token still present in the document (written
// before the keyring was enabled) is used when the keyring has none.
func (s *KeyringStore) Get(key string, v any) (bool, error) {
	found, err := s.Store.Get(key, v)
	settings, ok := v.(*models.ConnectionSettings)
	if err != nil || key != SettingsKey || !ok {
		return found, err
	}

	token, err := keyring.Get(KeyringService, KeyringUser)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return found, nil
	case err != nil:
		return found, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	settings.Token = token
	return true, nil
}

// Set implements Store.
func (s *KeyringStore) Set(key string, v any) error {
	settings, ok := v.(*models.ConnectionSettings)
	if key != SettingsKey || !ok {
		return s.Store.Set(key, v)
	}

	if settings.Token == "" {
		if err := keyring.Delete(KeyringService, KeyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return &PersistenceError{Op: "write", Key: key, Err: err}
		}
	} else if err := keyring.Set(KeyringService, KeyringUser, settings.Token); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}

	stripped := *settings
	stripped.Token = ""
	return s.Store.Set(key, &stripped)
}

// OpenStore returns the global store, wrapped for the keyring when opts ask
// for it.
func OpenStore(opts Options) (Store, *FileStore, error) {
	files, err := OpenGlobalStore()
	if err != nil {
		return nil, nil, err
	}
	if opts.TokenInKeyring {
		return NewKeyringStore(files), files, nil
	}
	return files, files, nil
}
