package config

import (
	"os"
	"syscall"

	"github.com/hatray/hatray/internal/models"
)

// DaemonRecord is the running agent's entry under DaemonKey. The agent saves
// it once it is listening and removes it on shutdown; clients read it to
// find the gRPC port.
type DaemonRecord struct {
	files *FileStore
}

// NewDaemonRecord keeps the record in files.
func NewDaemonRecord(files *FileStore) *DaemonRecord {
	return &DaemonRecord{files: files}
}

// OpenDaemonRecord returns the record in the agent home directory.
func OpenDaemonRecord() (*DaemonRecord, error) {
	files, err := OpenGlobalStore()
	if err != nil {
		return nil, err
	}
	return NewDaemonRecord(files), nil
}

// Load returns the stored record, or nil if no agent has registered.
func (r *DaemonRecord) Load() (*models.DaemonInfo, error) {
	var info models.DaemonInfo
	found, err := r.files.Get(DaemonKey, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

// Save registers info.
func (r *DaemonRecord) Save(info *models.DaemonInfo) error {
	return r.files.Set(DaemonKey, info)
}

// Remove deletes the record. Removing an absent record is not an error.
func (r *DaemonRecord) Remove() error {
	return r.files.Delete(DaemonKey)
}

// Running reports whether the registered agent process is alive. Records
// left behind by an exited process, or that no longer parse, are removed.
// The stale record is still returned so callers can report it.
func (r *DaemonRecord) Running() (bool, *models.DaemonInfo, error) {
	info, err := r.Load()
	if IsCorrupt(err) {
		return false, nil, r.Remove()
	}
	if err != nil || info == nil {
		return false, nil, err
	}

	if processAlive(info.PID) {
		return true, info, nil
	}
	return false, info, r.Remove()
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}
