package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/hatray/hatray/internal/commands"
	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/models"
	"github.com/hatray/hatray/internal/selection"
)

func newHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"API running."}`))
	})
	mux.HandleFunc("/api/states", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"entity_id":"switch.lamp","state":"on","attributes":{"friendly_name":"Lamp"}},
			{"entity_id":"sensor.temp","state":"21","attributes":{}}
		]`))
	})
	mux.HandleFunc("/api/services/switch/toggle", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"entity_id":"switch.lamp","state":"off","attributes":{"friendly_name":"Lamp","icon":null}}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// startBufconn serves both services over an in-memory listener.
func startBufconn(t *testing.T, facade Facade, info *models.DaemonInfo, shutdown func()) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, facade, info, shutdown)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestTrayService_RoundTrip(t *testing.T) {
	hub := newHub(t)
	store := config.NewFileStore(t.TempDir())
	facade := commands.New(store, selection.New(store), nil, 2*time.Second)
	client := startBufconn(t, facade, models.NewDaemonInfo(Host, 1, 0, 42), nil)
	ctx := context.Background()

	settings, err := client.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings != (models.ConnectionSettings{}) {
		t.Fatalf("LoadSettings = %#v, want empty", settings)
	}

	st := client.CheckAPIStatus(ctx, hub.URL, "abc")
	if diff := cmp.Diff(models.Online("API running."), st); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}

	entities, err := client.ListSwitchEntities(ctx)
	if err != nil {
		t.Fatalf("ListSwitchEntities: %v", err)
	}
	lamp := models.BooleanEntity{ID: "switch.lamp", State: "on", FriendlyName: "Lamp"}
	if diff := cmp.Diff([]models.BooleanEntity{lamp}, entities); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}

	if err := client.SetEntitySelected(ctx, lamp, true); err != nil {
		t.Fatalf("SetEntitySelected: %v", err)
	}
	selected, err := client.ListSelectedEntities(ctx)
	if err != nil {
		t.Fatalf("ListSelectedEntities: %v", err)
	}
	if diff := cmp.Diff([]models.BooleanEntity{lamp}, selected); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}

	results, err := client.ToggleEntity(ctx, lamp.ID)
	if err != nil {
		t.Fatalf("ToggleEntity: %v", err)
	}
	want := []models.ToggleResult{{
		EntityID:   "switch.lamp",
		State:      "off",
		Attributes: map[string]any{"friendly_name": "Lamp", "icon": nil},
	}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("toggle mismatch (-want +got):\n%s", diff)
	}
}

func TestTrayService_ErrorsAreFlattened(t *testing.T) {
	store := config.NewFileStore(t.TempDir())
	facade := commands.New(store, selection.New(store), nil, time.Second)
	client := startBufconn(t, facade, models.NewDaemonInfo(Host, 1, 0, 42), nil)

	err := client.SetEntitySelected(context.Background(), models.BooleanEntity{ID: "light.kitchen"}, true)
	var flat commands.Error
	if !errors.As(err, &flat) {
		t.Fatalf("error = %T %v, want commands.Error", err, err)
	}
	if want := `not a switch entity: "light.kitchen"`; string(flat) != want {
		t.Fatalf("error = %q, want %q", flat, want)
	}
}

func TestDaemonService(t *testing.T) {
	store := config.NewFileStore(t.TempDir())
	facade := commands.New(store, selection.New(store), nil, time.Second)
	info := models.NewDaemonInfo(Host, 50051, 8080, 42)
	info.StartedAt = info.StartedAt.Truncate(time.Second)

	stopped := make(chan struct{})
	client := startBufconn(t, facade, info, func() { close(stopped) })
	ctx := context.Background()

	got, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff(info, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}

	if err := client.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback not called")
	}
}

func TestIsLoopbackOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"https://example.com", false},
		{"http://192.168.1.10", false},
		{"", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := IsLoopbackOrigin(tt.origin); got != tt.want {
				t.Fatalf("IsLoopbackOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestWebHandler_RejectsPlainHTTP(t *testing.T) {
	h := WebHandler(grpc.NewServer())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
