package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/models"
)

const testToken = "test-token"

// newSession persists settings for appURL and loads a session from them.
func newSession(t *testing.T, appURL string) *Session {
	t.Helper()
	store := config.NewFileStore(t.TempDir())
	if err := store.Set(config.SettingsKey, &models.ConnectionSettings{AppURL: appURL, Token: testToken}); err != nil {
		t.Fatalf("Set settings: %v", err)
	}
	s, err := Load(store, 2*time.Second)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return s
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		http.Error(w, "401: Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

type failingStore struct{}

func (failingStore) Get(string, any) (bool, error) { return false, nil }
func (failingStore) Set(key string, _ any) error {
	return &config.PersistenceError{Op: "write", Key: key, Err: errors.New("disk full")}
}

func TestLoad_MissingSettingsYieldsEmptySession(t *testing.T) {
	s, err := Load(config.NewFileStore(t.TempDir()), 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := s.Settings(); got != (models.ConnectionSettings{}) {
		t.Fatalf("Settings = %#v, want empty", got)
	}
}

func TestUpdateSettings_PersistsImmediately(t *testing.T) {
	store := config.NewFileStore(t.TempDir())
	s, err := Load(store, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := s.UpdateSettings("http://hub.local:8123", "abc"); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	reloaded, err := Load(store, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := models.ConnectionSettings{AppURL: "http://hub.local:8123", Token: "abc"}
	if got := reloaded.Settings(); got != want {
		t.Fatalf("reloaded Settings = %#v, want %#v", got, want)
	}
}

func TestUpdateSettings_PersistenceError(t *testing.T) {
	s, err := Load(failingStore{}, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = s.UpdateSettings("http://hub.local", "abc")
	var perr *config.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("UpdateSettings error = %v, want *config.PersistenceError", err)
	}
}

func TestCheckStatus_Online(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		if !authorized(w, r) {
			return
		}
		if r.URL.Path != "/api/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"API running."}`))
	}))
	t.Cleanup(server.Close)

	// Trailing slash on the configured URL must not double up.
	got := newSession(t, server.URL+"/").CheckStatus(context.Background())
	if got != models.Online("API running.") {
		t.Fatalf("CheckStatus = %#v, want Online/API running.", got)
	}
	if !strings.HasPrefix(gotUserAgent, "hatray/") {
		t.Fatalf("User-Agent = %q, want hatray/*", gotUserAgent)
	}
}

func TestCheckStatus_OfflineClasses(t *testing.T) {
	t.Parallel()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not-json"))
	}))
	t.Cleanup(garbage.Close)

	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorized(w, r)
	}))
	t.Cleanup(unauthorized.Close)

	body := func(doc string) string {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(doc))
		}))
		t.Cleanup(srv.Close)
		return srv.URL
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		appURL string
		want   string
	}{
		{name: "empty url", appURL: "", want: MsgBuildRequest},
		{name: "relative url", appURL: "hub.local:8123", want: MsgBuildRequest},
		{name: "connection refused", appURL: closedURL, want: MsgConnect},
		{name: "malformed body", appURL: garbage.URL, want: MsgParse},
		{name: "error status", appURL: unauthorized.URL + "/nested", want: MsgParse},
		{name: "empty object", appURL: body(`{}`), want: MsgParse},
		{name: "null body", appURL: body(`null`), want: MsgParse},
		{name: "no message field", appURL: body(`{"status":"ok"}`), want: MsgParse},
		{name: "non-string message", appURL: body(`{"message":5}`), want: MsgParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSession(t, tt.appURL).CheckStatus(context.Background())
			if got.Status != models.APIStatusOffline || got.Message != tt.want {
				t.Errorf("CheckStatus = %#v, want Offline/%q", got, tt.want)
			}
		})
	}
}

func TestListSwitchEntities_FiltersStates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		if r.Method != http.MethodGet || r.URL.Path != "/api/states" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[
			{"entity_id":"switch.lamp","state":"on","attributes":{"friendly_name":"Lamp"}},
			{"entity_id":"light.kitchen","state":"on"}
		]`))
	}))
	t.Cleanup(server.Close)

	got, err := newSession(t, server.URL).ListSwitchEntities(context.Background())
	if err != nil {
		t.Fatalf("ListSwitchEntities returned error: %v", err)
	}
	want := models.BooleanEntity{ID: "switch.lamp", State: "on", FriendlyName: "Lamp"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("ListSwitchEntities = %#v, want [%#v]", got, want)
	}
}

func TestListSwitchEntities_Errors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	t.Cleanup(server.Close)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	_, err := newSession(t, server.URL).ListSwitchEntities(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("ListSwitchEntities error = %v, want ErrDecode", err)
	}

	_, err = newSession(t, failing.URL).ListSwitchEntities(context.Background())
	if !errors.Is(err, ErrStatus) || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("ListSwitchEntities error = %v, want status 500 error", err)
	}

	_, err = newSession(t, "").ListSwitchEntities(context.Background())
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("ListSwitchEntities error = %v, want ErrRequest", err)
	}
}

func TestToggleEntity_PostsEntityID(t *testing.T) {
	t.Parallel()

	var gotBody toggleRequest
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		if r.Method != http.MethodPost || r.URL.Path != "/api/services/switch/toggle" {
			http.NotFound(w, r)
			return
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[{"entity_id":"switch.lamp","state":"off","attributes":{"friendly_name":"Lamp"}}]`))
	}))
	t.Cleanup(server.Close)

	got, err := newSession(t, server.URL).ToggleEntity(context.Background(), "switch.lamp")
	if err != nil {
		t.Fatalf("ToggleEntity returned error: %v", err)
	}
	if gotBody.EntityID != "switch.lamp" {
		t.Fatalf("request entity_id = %q, want switch.lamp", gotBody.EntityID)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if len(got) != 1 || got[0].EntityID != "switch.lamp" || got[0].State != "off" || got[0].FriendlyName() != "Lamp" {
		t.Fatalf("ToggleEntity = %#v, want switch.lamp off", got)
	}
}

func TestToggleEntity_NoRetryOnFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	_, err := newSession(t, server.URL).ToggleEntity(context.Background(), "switch.lamp")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("ToggleEntity error = %v, want ErrStatus", err)
	}
	if calls != 1 {
		t.Fatalf("server saw %d calls, want 1", calls)
	}
}

func TestToggleEntity_RequiresID(t *testing.T) {
	_, err := newSession(t, "http://127.0.0.1:1").ToggleEntity(context.Background(), " ")
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("ToggleEntity error = %v, want ErrRequest", err)
	}
}
