// Package registry tracks the set of named collections, the active
// collection, and per-collection layout preferences. Collection names map
// to sanitized file names under the collections directory; backing files
// are never hard-deleted, only moved aside.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/WayBetterSolutions/LEAF/internal/apperr"
	"github.com/WayBetterSolutions/LEAF/internal/checksum"
	"github.com/WayBetterSolutions/LEAF/internal/event"
	"github.com/WayBetterSolutions/LEAF/internal/models"
	"github.com/WayBetterSolutions/LEAF/internal/storage"
)

// ConfigProvider supplies the global card dimension defaults. Switching
// collections writes the incoming collection's stored layout back through
// it so the presentation layer always reads current values.
type ConfigProvider interface {
	CardDefaults() (width, height int)
	SetCardDefaults(width, height int)
}

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Sanitize converts a collection name into a safe file stem: forbidden
// filesystem characters replaced, whitespace trimmed, length capped at 50
// runes, "Unnamed" when nothing is left. Distinct names may sanitize to the
// same stem; such collisions are accepted and share a backing file.
func Sanitize(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	safe = strings.TrimSpace(safe)
	if r := []rune(safe); len(r) > 50 {
		safe = string(r[:50])
	}
	if safe == "" {
		return "Unnamed"
	}
	return safe
}

// Registry is the collection state machine. All public methods are safe
// for concurrent use; events are published after the corresponding
// persistence call and outside the internal lock.
type Registry struct {
	file   string
	dir    string
	cfg    ConfigProvider
	bus    *event.Bus
	logger *slog.Logger

	mu          sync.Mutex
	collections []string
	current     string
	settings    map[string]models.Layout
}

// New creates a registry persisting to file, with per-collection backing
// files under dir.
func New(file, dir string, cfg ConfigProvider, bus *event.Bus, logger *slog.Logger) *Registry {
	return &Registry{
		file:     file,
		dir:      dir,
		cfg:      cfg,
		bus:      bus,
		logger:   logger,
		settings: make(map[string]models.Layout),
	}
}

// FilePath returns the backing file for a collection name.
func (r *Registry) FilePath(name string) string {
	return filepath.Join(r.dir, Sanitize(name)+".json")
}

// Load reads the registry document, clamping the active collection into the
// known set and back-filling missing layout settings. A corrupt or
// unreadable file degrades to an empty registry plus a load.error event.
func (r *Registry) Load() {
	doc, err := storage.ReadJSON(r.file, models.RegistryDoc{Settings: map[string]models.Layout{}})
	if err != nil {
		r.logger.Warn("registry: load degraded", slog.String("error", err.Error()))
		r.bus.Publish(event.Event{Type: event.LoadError, Data: err.Error()})
	}

	r.mu.Lock()
	r.collections = doc.Collections
	r.current = doc.CurrentCollection
	r.settings = doc.Settings
	if r.settings == nil {
		r.settings = make(map[string]models.Layout)
	}

	if len(r.collections) > 0 && !r.containsLocked(r.current) {
		r.current = r.collections[0]
	}

	w, h := r.cfg.CardDefaults()
	for _, name := range r.collections {
		s, ok := r.settings[name]
		if !ok {
			r.settings[name] = models.Layout{CardWidth: w, CardHeight: h, PreferredColumns: 1}
			continue
		}
		if s.CardWidth == 0 {
			s.CardWidth = w
		}
		if s.CardHeight == 0 {
			s.CardHeight = h
		}
		if s.PreferredColumns == 0 {
			s.PreferredColumns = 1
		}
		r.settings[name] = s
	}

	if s, ok := r.settings[r.current]; ok && r.current != "" {
		r.cfg.SetCardDefaults(s.CardWidth, s.CardHeight)
	}
	r.mu.Unlock()
}

// Save persists the registry document.
func (r *Registry) Save() error {
	r.mu.Lock()
	doc := r.docLocked()
	r.mu.Unlock()

	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		return err
	}
	return nil
}

// NeedsSetup reports whether no collection has been created yet.
func (r *Registry) NeedsSetup() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collections) == 0 || r.current == ""
}

// SetupFirst initializes the registry with its very first collection.
func (r *Registry) SetupFirst(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return apperr.ErrBlankName
	}

	r.mu.Lock()
	w, h := r.cfg.CardDefaults()
	r.collections = []string{clean}
	r.current = clean
	r.settings[clean] = models.Layout{CardWidth: w, CardHeight: h, PreferredColumns: 1}
	doc := r.docLocked()
	r.mu.Unlock()

	if err := r.createFile(clean); err != nil {
		r.rollbackFirst()
		return err
	}
	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.rollbackFirst()
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		return err
	}

	r.bus.Publish(event.Event{Type: event.CollectionsChanged})
	r.bus.Publish(event.Event{Type: event.CollectionSwitched, Data: clean})
	return nil
}

func (r *Registry) rollbackFirst() {
	r.mu.Lock()
	r.collections = nil
	r.current = ""
	r.settings = make(map[string]models.Layout)
	r.mu.Unlock()
}

// Create adds a new collection with an empty backing file. The in-memory
// entry is rolled back if the file cannot be created or the registry cannot
// be persisted; a rolled-back entry may leave an orphan backing file, which
// is recreated idempotently on next use.
func (r *Registry) Create(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return apperr.ErrBlankName
	}

	r.mu.Lock()
	if r.containsLocked(clean) {
		r.mu.Unlock()
		return apperr.ErrExists
	}
	w, h := r.cfg.CardDefaults()
	r.collections = append(r.collections, clean)
	r.settings[clean] = models.Layout{CardWidth: w, CardHeight: h, PreferredColumns: 1}
	doc := r.docLocked()
	r.mu.Unlock()

	if err := r.createFile(clean); err != nil {
		r.removeEntry(clean)
		return err
	}
	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.removeEntry(clean)
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		return err
	}

	r.bus.Publish(event.Event{Type: event.CollectionsChanged})
	return nil
}

// Switch makes name the active collection. Unknown or already-active names
// are silent no-ops. The target's backing file is created if missing; if
// that fails the previous active name is restored.
func (r *Registry) Switch(name string) {
	r.mu.Lock()
	if !r.containsLocked(name) || r.current == name {
		r.mu.Unlock()
		return
	}
	old := r.current
	r.current = name

	s, ok := r.settings[name]
	if !ok {
		w, h := r.cfg.CardDefaults()
		s = models.Layout{CardWidth: w, CardHeight: h, PreferredColumns: 1}
		r.settings[name] = s
	}
	r.cfg.SetCardDefaults(s.CardWidth, s.CardHeight)
	doc := r.docLocked()
	r.mu.Unlock()

	target := r.FilePath(name)
	if _, err := os.Stat(target); err != nil {
		if err := r.createFile(name); err != nil {
			r.mu.Lock()
			r.current = old
			r.mu.Unlock()
			return
		}
	}

	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
	}
	r.bus.Publish(event.Event{Type: event.CollectionSwitched, Data: name})
}

// Delete removes a collection, soft-deleting its backing file. The last
// remaining collection cannot be deleted. If the active collection is
// deleted, the first remaining one becomes active.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	if len(r.collections) <= 1 {
		r.mu.Unlock()
		return apperr.ErrLastCollection
	}
	if !r.containsLocked(name) {
		r.mu.Unlock()
		return apperr.ErrNotFound
	}
	for i, c := range r.collections {
		if c == name {
			r.collections = append(r.collections[:i], r.collections[i+1:]...)
			break
		}
	}
	switched := ""
	if r.current == name {
		r.current = r.collections[0]
		switched = r.current
	}
	doc := r.docLocked()
	r.mu.Unlock()

	target := r.FilePath(name)
	if _, err := os.Stat(target); err == nil {
		if _, err := storage.MoveAside(target, "deleted"); err != nil {
			r.logger.Warn("registry: soft delete failed", slog.String("collection", name), slog.String("error", err.Error()))
			r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		}
	}

	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
	}
	if switched != "" {
		r.bus.Publish(event.Event{Type: event.CollectionSwitched, Data: switched})
	}
	r.bus.Publish(event.Event{Type: event.CollectionsChanged})
	return nil
}

// Rename changes a collection's name and renames its backing file. If the
// old file is missing a fresh empty one is created under the new name. On
// file failure the registry change is rolled back.
func (r *Registry) Rename(oldName, newName string) error {
	clean := strings.TrimSpace(newName)

	r.mu.Lock()
	if !r.containsLocked(oldName) {
		r.mu.Unlock()
		return apperr.ErrNotFound
	}
	if clean == "" {
		r.mu.Unlock()
		return apperr.ErrBlankName
	}
	if r.containsLocked(clean) {
		r.mu.Unlock()
		return apperr.ErrExists
	}
	idx := -1
	for i, c := range r.collections {
		if c == oldName {
			idx = i
			break
		}
	}
	r.collections[idx] = clean
	if s, ok := r.settings[oldName]; ok {
		r.settings[clean] = s
		delete(r.settings, oldName)
	}
	switched := ""
	if r.current == oldName {
		r.current = clean
		switched = clean
	}
	doc := r.docLocked()
	r.mu.Unlock()

	oldFile, newFile := r.FilePath(oldName), r.FilePath(clean)
	var fileErr error
	if _, err := os.Stat(oldFile); err == nil {
		fileErr = os.Rename(oldFile, newFile)
	} else {
		fileErr = r.createFile(clean)
	}
	if fileErr != nil {
		r.mu.Lock()
		r.collections[idx] = oldName
		if s, ok := r.settings[clean]; ok {
			r.settings[oldName] = s
			delete(r.settings, clean)
		}
		if switched != "" {
			r.current = oldName
		}
		r.mu.Unlock()
		r.bus.Publish(event.Event{Type: event.SaveError, Data: fileErr.Error()})
		return fileErr
	}

	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
	}
	if switched != "" {
		r.bus.Publish(event.Event{Type: event.CollectionSwitched, Data: clean})
	}
	r.bus.Publish(event.Event{Type: event.CollectionsChanged})
	return nil
}

// EnsureFiles recreates any missing backing files. Self-healing for
// crash-window inconsistencies between the registry and collection files.
func (r *Registry) EnsureFiles() {
	for _, name := range r.Collections() {
		target := r.FilePath(name)
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := r.createFile(name); err != nil {
			r.logger.Warn("registry: recreate backing file failed",
				slog.String("collection", name), slog.String("error", err.Error()))
		}
	}
}

// Info summarizes every collection from its backing file. Read failures
// contribute a zero row rather than an error.
func (r *Registry) Info() []models.CollectionInfo {
	names := r.Collections()
	current := r.Current()

	out := make([]models.CollectionInfo, 0, len(names))
	for _, name := range names {
		info := models.CollectionInfo{Name: name, IsCurrent: name == current}
		target := r.FilePath(name)
		if st, err := os.Stat(target); err == nil {
			info.FileSize = st.Size()
			notes, err := storage.ReadJSON(target, []models.Note{})
			if err == nil {
				info.NoteCount = len(notes)
			}
		}
		out = append(out, info)
	}
	return out
}

// Collections returns a copy of the known collection names in order.
func (r *Registry) Collections() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.collections))
	copy(out, r.collections)
	return out
}

// Current returns the active collection name, or "" before first setup.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// LayoutFor returns the stored layout for name, seeding it from the config
// defaults when absent.
func (r *Registry) LayoutFor(name string) models.Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[name]; ok {
		return s
	}
	w, h := r.cfg.CardDefaults()
	s := models.Layout{CardWidth: w, CardHeight: h, PreferredColumns: 1}
	r.settings[name] = s
	return s
}

// SetCurrentLayout updates the active collection's layout, writes the card
// dimensions through to the config defaults, and persists the registry.
func (r *Registry) SetCurrentLayout(layout models.Layout) {
	r.mu.Lock()
	if r.current == "" {
		r.mu.Unlock()
		return
	}
	r.settings[r.current] = layout
	r.cfg.SetCardDefaults(layout.CardWidth, layout.CardHeight)
	doc := r.docLocked()
	r.mu.Unlock()

	if err := storage.WriteJSON(r.file, doc); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
	}
}

// InSync reports whether the on-disk registry document matches the
// in-memory state. The watcher uses it to ignore the registry's own writes.
func (r *Registry) InSync(fileData []byte) bool {
	r.mu.Lock()
	doc := r.docLocked()
	r.mu.Unlock()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false
	}
	return checksum.Sum(data) == checksum.Sum(fileData)
}

func (r *Registry) containsLocked(name string) bool {
	for _, c := range r.collections {
		if c == name {
			return true
		}
	}
	return false
}

func (r *Registry) docLocked() models.RegistryDoc {
	doc := models.RegistryDoc{
		Collections:       make([]string, len(r.collections)),
		CurrentCollection: r.current,
		Settings:          make(map[string]models.Layout, len(r.settings)),
	}
	copy(doc.Collections, r.collections)
	for k, v := range r.settings {
		doc.Settings[k] = v
	}
	return doc
}

func (r *Registry) createFile(name string) error {
	if err := storage.WriteJSON(r.FilePath(name), []models.Note{}); err != nil {
		r.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		return fmt.Errorf("registry: create backing file for %q: %w", name, err)
	}
	return nil
}

func (r *Registry) removeEntry(name string) {
	r.mu.Lock()
	for i, c := range r.collections {
		if c == name {
			r.collections = append(r.collections[:i], r.collections[i+1:]...)
			break
		}
	}
	delete(r.settings, name)
	r.mu.Unlock()
}
