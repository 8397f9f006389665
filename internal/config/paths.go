// Package config handles persisted state, agent options, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the agent home directory.
	GlobalDirName = ".hatray"

	// HomeEnv overrides the agent home directory when set.
	HomeEnv = "HATRAY_HOME"
)

// File names
const (
	SettingsFileName  = "settings.yaml"
	EntitiesFileName  = "entities.yaml"
	OptionsFileName   = "agent.toml"
	DaemonLogFileName = "hatrayd.log"
)

// Store keys. Each key is persisted as <key>.yaml in the agent home.
const (
	SettingsKey = "settings"
	EntitiesKey = "entities"
	DaemonKey   = "daemon"
)

// GlobalDir returns the path to the agent home directory (~/.hatray/).
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonLogFile returns the path hatrayd output is appended to when
// the CLI starts it.
func GlobalDaemonLogFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonLogFileName), nil
}

// GlobalOptionsFile returns the path to the agent.toml file.
func GlobalOptionsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, OptionsFileName), nil
}

// EnsureGlobalDir creates the agent home directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
