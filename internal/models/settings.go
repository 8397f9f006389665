package models

// ConnectionSettings holds the hub connection parameters.
// This corresponds to ~/.hatray/settings.yaml.
type ConnectionSettings struct {
	AppURL string `yaml:"app_url" json:"app_url"`
	Token  string `yaml:"token" json:"token"`
}

// NewConnectionSettings creates empty connection settings.
func NewConnectionSettings() *ConnectionSettings {
	return &ConnectionSettings{AppURL: "", Token: ""}
}

// IsConfigured reports whether both a URL and a token are set.
func (s ConnectionSettings) IsConfigured() bool {
	return s.AppURL != "" && s.Token != ""
}
