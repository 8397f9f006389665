package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hatray/hatray/internal/buildinfo"
	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/models"
)

const (
	statusPath = "/api/"
	statesPath = "/api/states"
	togglePath = "/api/services/switch/toggle"

	defaultTimeout = 10 * time.Second
)

// Offline messages reported by CheckStatus, one per failure class.
const (
	MsgBuildRequest = "Unable to build request."
	MsgConnect      = "Unable to connect to Home Assistant."
	MsgParse        = "Unable to parse response."
)

// Error classes for hub calls. Returned errors wrap exactly one of these.
var (
	ErrRequest   = errors.New("create request")
	ErrTransport = errors.New("execute request")
	ErrStatus    = errors.New("unexpected status")
	ErrDecode    = errors.New("decode response")
)

// Session holds the connection settings and HTTP client for one unit of work
// against the hub. Settings are read once, at Load; create a session per
// operation.
type Session struct {
	store     config.Store
	settings  models.ConnectionSettings
	http      *http.Client
	userAgent string
}

// Load reads the persisted connection settings and builds a session. Missing
// settings yield a session with an empty URL and token; calls made with it
// fail at request time.
func Load(store config.Store, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	settings := models.NewConnectionSettings()
	if _, err := store.Get(config.SettingsKey, settings); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &Session{
		store:     store,
		settings:  *settings,
		http:      &http.Client{Timeout: timeout},
		userAgent: "hatray/" + buildinfo.Version,
	}, nil
}

// Settings returns the settings the session was loaded with.
func (s *Session) Settings() models.ConnectionSettings {
	return s.settings
}

// UpdateSettings replaces both connection fields and persists them before
// returning.
func (s *Session) UpdateSettings(appURL, token string) error {
	s.settings.AppURL = appURL
	s.settings.Token = token

	if err := s.store.Set(config.SettingsKey, &s.settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// CheckStatus asks the hub whether its API is running. Failures are reported
// as Offline results whose message identifies the failure class.
func (s *Session) CheckStatus(ctx context.Context) models.APIStatusResult {
	var payload statusResponse
	err := s.do(ctx, http.MethodGet, statusPath, nil, &payload)
	if err == nil && payload.Message == nil {
		err = fmt.Errorf("%w: missing message", ErrDecode)
	}
	if err == nil {
		return models.Online(*payload.Message)
	}

	log.Printf("[homeassistant] Status check failed: %v", err)
	switch {
	case errors.Is(err, ErrRequest):
		return models.Offline(MsgBuildRequest)
	case errors.Is(err, ErrTransport):
		return models.Offline(MsgConnect)
	default:
		return models.Offline(MsgParse)
	}
}

// ListSwitchEntities fetches all hub states and returns the available switch
// entities.
func (s *Session) ListSwitchEntities(ctx context.Context) ([]models.BooleanEntity, error) {
	var entries []StateEntry
	if err := s.do(ctx, http.MethodGet, statesPath, nil, &entries); err != nil {
		return nil, err
	}
	return FilterSwitches(entries), nil
}

// ToggleEntity calls the switch toggle service for one entity and returns the
// states the hub reports as changed. The call is made at most once.
func (s *Session) ToggleEntity(ctx context.Context, id string) ([]models.ToggleResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: entity id required", ErrRequest)
	}
	var results []models.ToggleResult
	if err := s.do(ctx, http.MethodPost, togglePath, toggleRequest{EntityID: id}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Session) do(ctx context.Context, method, path string, body, dest any) error {
	reqURL, err := s.endpoint(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRequest, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.settings.Token)
	req.Header.Set("User-Agent", s.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: api %s returned status %d", ErrStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// endpoint joins path onto the configured app_url.
func (s *Session) endpoint(path string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(s.settings.AppURL), "/")
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("%w: parse app_url %q: %w", ErrRequest, s.settings.AppURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: app_url %q is not an http(s) URL", ErrRequest, s.settings.AppURL)
	}
	return u.String(), nil
}
