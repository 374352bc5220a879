// Package prefs persists per-user display preferences across sessions. The
// in-memory value is the source of truth once hydrated; persistence failures
// are logged and never block a preference change.
package prefs

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

const settingsKey = "display"

// GridDensity selects how many thumbnails a gallery row shows
type GridDensity string

const (
	DensityComfortable GridDensity = "comfortable"
	DensityCompact     GridDensity = "compact"
)

// Settings holds the persisted display preferences
type Settings struct {
	GridDensity      GridDensity
	SidebarCollapsed bool
	NativeAspect     bool
	UpdatedAt        time.Time
}

func defaultSettings() Settings {
	return Settings{GridDensity: DensityComfortable}
}

// Manager hydrates preferences at startup and writes every change through to
// disk
type Manager struct {
	store  *bolthold.Store // nil means in-memory only
	logger *logrus.Logger

	mu       sync.Mutex
	settings Settings
}

// NewMemory creates a manager that never touches disk. Used when the
// preferences database cannot be opened; changes last for the session only.
func NewMemory(logger *logrus.Logger) *Manager {
	return &Manager{
		logger:   logger,
		settings: defaultSettings(),
	}
}

// Open opens (or creates) the preferences database and hydrates the current
// settings. A missing or unreadable database yields defaults.
func Open(path string, logger *logrus.Logger) (*Manager, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}

	m := &Manager{
		store:    store,
		logger:   logger,
		settings: defaultSettings(),
	}
	m.hydrate()
	return m, nil
}

// Close closes the preferences database
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) hydrate() {
	var stored Settings
	err := m.store.Get(settingsKey, &stored)
	if err == bolthold.ErrNotFound {
		return
	}
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read preferences, using defaults")
		return
	}
	if stored.GridDensity != DensityComfortable && stored.GridDensity != DensityCompact {
		stored.GridDensity = DensityComfortable
	}

	m.mu.Lock()
	m.settings = stored
	m.mu.Unlock()
}

// Settings returns the current preferences
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetGridDensity updates the thumbnail density
func (m *Manager) SetGridDensity(density GridDensity) {
	if density != DensityComfortable && density != DensityCompact {
		m.logger.WithField("density", density).Warn("Ignoring unknown grid density")
		return
	}
	m.update(func(s *Settings) { s.GridDensity = density })
}

// SetSidebarCollapsed updates the sidebar state
func (m *Manager) SetSidebarCollapsed(collapsed bool) {
	m.update(func(s *Settings) { s.SidebarCollapsed = collapsed })
}

// SetNativeAspect toggles native-aspect-ratio thumbnails
func (m *Manager) SetNativeAspect(native bool) {
	m.update(func(s *Settings) { s.NativeAspect = native })
}

func (m *Manager) update(apply func(*Settings)) {
	m.mu.Lock()
	apply(&m.settings)
	m.settings.UpdatedAt = time.Now()
	current := m.settings
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	if err := m.store.Upsert(settingsKey, &current); err != nil {
		m.logger.WithError(err).Warn("Failed to persist preferences, keeping in-memory value")
	}
}
