package config

import (
	"os"
	"testing"

	"github.com/hatray/hatray/internal/models"
)

func TestDaemonRecord_SaveLoadRemove(t *testing.T) {
	files := NewFileStore(t.TempDir())
	record := NewDaemonRecord(files)

	if info, err := record.Load(); err != nil || info != nil {
		t.Fatalf("Load before Save = %v, %v; want nil, nil", info, err)
	}

	want := models.NewDaemonInfo("127.0.0.1", 4242, 0, os.Getpid())
	if err := record.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(files.Path(DaemonKey)); err != nil {
		t.Fatalf("record not stored under %s: %v", DaemonKey, err)
	}

	running, got, err := record.Running()
	if err != nil || !running {
		t.Fatalf("Running = %v, %v; want true for this process", running, err)
	}
	if got.Port != want.Port || got.PID != want.PID || !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("Running info = %#v, want %#v", got, want)
	}

	if err := record.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := record.Remove(); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if info, _ := record.Load(); info != nil {
		t.Fatalf("Load after Remove = %#v, want nil", info)
	}
}

func TestDaemonRecord_StaleRecordIsRemoved(t *testing.T) {
	files := NewFileStore(t.TempDir())
	record := NewDaemonRecord(files)

	if err := record.Save(models.NewDaemonInfo("127.0.0.1", 4242, 0, -1)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	running, info, err := record.Running()
	if err != nil || running {
		t.Fatalf("Running = %v, %v; want false, nil", running, err)
	}
	if info == nil || info.Port != 4242 {
		t.Fatalf("stale info = %#v, want the removed record", info)
	}
	if _, err := os.Stat(files.Path(DaemonKey)); !os.IsNotExist(err) {
		t.Fatalf("stale record still on disk: %v", err)
	}
}

func TestDaemonRecord_CorruptRecordIsRemoved(t *testing.T) {
	files := NewFileStore(t.TempDir())
	if err := os.WriteFile(files.Path(DaemonKey), []byte("port: [oops\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	running, info, err := NewDaemonRecord(files).Running()
	if err != nil || running || info != nil {
		t.Fatalf("Running = %v, %#v, %v; want false, nil, nil", running, info, err)
	}
	if _, err := os.Stat(files.Path(DaemonKey)); !os.IsNotExist(err) {
		t.Fatalf("corrupt record still on disk: %v", err)
	}
}
