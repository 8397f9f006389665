package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hatray/hatray/internal/config"
)

func newHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			http.Error(w, "401: Unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"message":"API running."}`))
	})
	mux.HandleFunc("/api/states", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"entity_id":"switch.lamp","state":"on","attributes":{"friendly_name":"Lamp"}},
			{"entity_id":"light.kitchen","state":"on","attributes":{}}
		]`))
	})
	mux.HandleFunc("/api/services/switch/toggle", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"entity_id":"switch.lamp","state":"off","attributes":{"friendly_name":"Lamp"}}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("hatray %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCommands_LocalWorkflow(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	hub := newHub(t)

	if out := mustRun(t, "settings", "set", "--url", hub.URL, "--token", "abc"); !strings.Contains(out, "Settings saved.") {
		t.Fatalf("settings set output:\n%s", out)
	}
	out := mustRun(t, "settings", "show")
	if !strings.Contains(out, hub.URL) || strings.Contains(out, "abc") {
		t.Fatalf("settings show output:\n%s", out)
	}

	if out := mustRun(t, "status"); !strings.Contains(out, "Online API running.") {
		t.Fatalf("status output:\n%s", out)
	}

	if out := mustRun(t, "select", "switch.lamp"); !strings.Contains(out, "Added Lamp") {
		t.Fatalf("select output:\n%s", out)
	}
	if _, err := run(t, "select", "light.kitchen"); err == nil {
		t.Fatal("selecting a non-switch entity succeeded")
	}

	if out := mustRun(t, "selected"); !strings.Contains(out, "Lamp switch.lamp") {
		t.Fatalf("selected output:\n%s", out)
	}
	if out := mustRun(t, "entities"); !strings.Contains(out, "[x] Lamp") || strings.Contains(out, "light.kitchen") {
		t.Fatalf("entities output:\n%s", out)
	}

	if out := mustRun(t, "toggle", "switch.lamp"); !strings.Contains(out, "Lamp is off") {
		t.Fatalf("toggle output:\n%s", out)
	}

	if out := mustRun(t, "deselect", "switch.lamp"); !strings.Contains(out, "Removed switch.lamp") {
		t.Fatalf("deselect output:\n%s", out)
	}
	if out := mustRun(t, "selected"); !strings.Contains(out, "No switches in the menu.") {
		t.Fatalf("selected output after deselect:\n%s", out)
	}
}

func TestStatus_Offline(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	out, err := run(t, "status")
	if err == nil {
		t.Fatal("status with no settings succeeded")
	}
	if !strings.Contains(out, "Offline Unable to build request.") || !strings.Contains(out, "hatray settings set") {
		t.Fatalf("status output:\n%s", out)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(not set)"},
		{"abc", "***"},
		{"abcdefghij", "********ghij"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Fatalf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestPromptToken_NonTerminal(t *testing.T) {
	var prompt bytes.Buffer
	got, err := promptToken(strings.NewReader("  secret \n"), &prompt)
	if err != nil {
		t.Fatalf("promptToken: %v", err)
	}
	if got != "secret" {
		t.Fatalf("promptToken = %q, want %q", got, "secret")
	}
	if !strings.Contains(prompt.String(), "Access token:") {
		t.Fatalf("prompt = %q", prompt.String())
	}
}
