package prefs

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDefaultsWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	m, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	got := m.Settings()
	if got.GridDensity != DensityComfortable {
		t.Errorf("expected comfortable density by default, got %s", got.GridDensity)
	}
	if got.SidebarCollapsed || got.NativeAspect {
		t.Errorf("expected toggles off by default, got %+v", got)
	}
}

func TestChangesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	m, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m.SetGridDensity(DensityCompact)
	m.SetSidebarCollapsed(true)
	m.SetNativeAspect(true)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got := reopened.Settings()
	if got.GridDensity != DensityCompact {
		t.Errorf("expected compact density, got %s", got.GridDensity)
	}
	if !got.SidebarCollapsed || !got.NativeAspect {
		t.Errorf("expected toggles on, got %+v", got)
	}
}

func TestUnknownDensityIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	m, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	m.SetGridDensity(DensityCompact)
	m.SetGridDensity("mosaic")

	if got := m.Settings().GridDensity; got != DensityCompact {
		t.Errorf("expected unknown density to be ignored, got %s", got)
	}
}
