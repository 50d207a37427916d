package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"TickerSentinel/internal/model"
)

// FileStore keeps settings in a single JSON file. It keeps no alert history.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the settings file. A missing file yields the defaults, and keys
// absent from the file keep their default values.
func (f *FileStore) Load(_ context.Context) (*model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	settings := model.DefaultSettings()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	settings.ApplyDefaults()
	return settings, nil
}

// Save writes the settings file through a temp file and rename.
func (f *FileStore) Save(_ context.Context, settings *model.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) RecordAlert(_ context.Context, _ model.FiredAlert) error { return nil }
func (f *FileStore) Close() error                                            { return nil }
