// Package testutil provides shared test helpers for wiring a registry and
// note store over a temporary data directory.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/WayBetterSolutions/LEAF/internal/event"
	"github.com/WayBetterSolutions/LEAF/internal/notestore"
	"github.com/WayBetterSolutions/LEAF/internal/registry"
)

// Defaults is a minimal registry.ConfigProvider for tests.
type Defaults struct {
	Width  int
	Height int
}

func (d *Defaults) CardDefaults() (int, int)          { return d.Width, d.Height }
func (d *Defaults) SetCardDefaults(width, height int) { d.Width, d.Height = width, height }

// Fixture bundles a wired registry and store over a temp data dir.
type Fixture struct {
	DataDir      string
	RegistryFile string
	Bus          *event.Bus
	Defaults     *Defaults
	Registry     *registry.Registry
	Store        *notestore.Store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewFixture wires a registry and store over t.TempDir. No collection
// exists yet; call Setup to create the first one.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	dir := t.TempDir()
	bus := event.NewBus()
	defs := &Defaults{Width: 480, Height: 400}
	regFile := filepath.Join(dir, "collections.json")
	reg := registry.New(regFile, filepath.Join(dir, "collections"), defs, bus, Logger())
	reg.Load()
	store := notestore.New(reg, bus, Logger())
	return &Fixture{
		DataDir:      dir,
		RegistryFile: regFile,
		Bus:          bus,
		Defaults:     defs,
		Registry:     reg,
		Store:        store,
	}
}

// Setup creates the first collection and loads the store.
func (f *Fixture) Setup(t *testing.T, name string) {
	t.Helper()
	if err := f.Registry.SetupFirst(name); err != nil {
		t.Fatalf("SetupFirst(%q): %v", name, err)
	}
	f.Store.Load()
}
