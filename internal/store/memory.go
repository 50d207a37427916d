package store

import (
	"context"
	"sync"

	"TickerSentinel/internal/model"
)

// MemoryStore keeps everything in process. It is used when no persistence
// is configured and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	settings *model.Settings
	fired    []model.FiredAlert
	saves    int
}

// NewMemoryStore returns a store seeded with initial, or the defaults when nil.
func NewMemoryStore(initial *model.Settings) *MemoryStore {
	m := &MemoryStore{}
	if initial != nil {
		m.settings = initial.Clone()
	}
	return m
}

func (m *MemoryStore) Load(_ context.Context) (*model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return model.DefaultSettings(), nil
	}
	s := m.settings.Clone()
	s.ApplyDefaults()
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s.Clone()
	m.saves++
	return nil
}

func (m *MemoryStore) RecordAlert(_ context.Context, f model.FiredAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fired = append(m.fired, f)
	return nil
}

func (m *MemoryStore) AlertHistory(_ context.Context, symbol string, limit int) ([]model.FiredAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var out []model.FiredAlert
	for i := len(m.fired) - 1; i >= 0 && len(out) < limit; i-- {
		if symbol == "" || m.fired[i].Alert.Symbol == symbol {
			out = append(out, m.fired[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// Saved returns the last saved settings and the number of saves.
func (m *MemoryStore) Saved() (*model.Settings, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, m.saves
	}
	return m.settings.Clone(), m.saves
}

// Fired returns the recorded alerts.
func (m *MemoryStore) Fired() []model.FiredAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.FiredAlert(nil), m.fired...)
}
