package config

import (
	"errors"
	"io"
	"log"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Options holds agent tuning read from ~/.hatray/agent.toml.
type Options struct {
	RequestTimeoutSeconds int  `toml:"request_timeout_seconds"`
	GRPCPort              int  `toml:"grpc_port"`
	WebPort               int  `toml:"web_port"`
	ToggleQueueSize       int  `toml:"toggle_queue_size"`
	MenuSlots             int  `toml:"menu_slots"`
	TokenInKeyring        bool `toml:"token_in_keyring"`
}

const (
	defaultRequestTimeoutSeconds = 10
	defaultToggleQueueSize       = 16
	defaultMenuSlots             = 32
)

// DefaultOptions returns the options used when agent.toml is missing.
func DefaultOptions() Options {
	return Options{
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		ToggleQueueSize:       defaultToggleQueueSize,
		MenuSlots:             defaultMenuSlots,
	}
}

// RequestTimeout returns the per-request HTTP timeout.
func (o Options) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

// LoadOptions reads options from path, falling back to defaults if the file
// is missing or unreadable. An empty path selects ~/.hatray/agent.toml.
func LoadOptions(path string) Options {
	opts := DefaultOptions()

	if path == "" {
		resolved, err := GlobalOptionsFile()
		if err != nil {
			return opts
		}
		path = resolved
	}

	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[config] Ignoring %s: %v", path, err)
		}
		return opts
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[config] Ignoring %s: %v", path, err)
		return opts
	}

	if err := toml.Unmarshal(bytes, &opts); err != nil {
		log.Printf("[config] Ignoring invalid %s: %v", path, err)
		return DefaultOptions()
	}

	return opts.normalized()
}

func (o Options) normalized() Options {
	if o.RequestTimeoutSeconds <= 0 {
		o.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if o.ToggleQueueSize <= 0 {
		o.ToggleQueueSize = defaultToggleQueueSize
	}
	if o.MenuSlots <= 0 {
		o.MenuSlots = defaultMenuSlots
	}
	if o.GRPCPort < 0 {
		o.GRPCPort = 0
	}
	if o.WebPort < 0 {
		o.WebPort = 0
	}
	return o
}
