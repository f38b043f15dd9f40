// Package notestore owns the in-memory notes of the active collection: id
// assignment, create/update/delete, the live filtered view, and immediate
// persistence through the storage layer.
package notestore

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/WayBetterSolutions/LEAF/internal/analytics"
	"github.com/WayBetterSolutions/LEAF/internal/apperr"
	"github.com/WayBetterSolutions/LEAF/internal/checksum"
	"github.com/WayBetterSolutions/LEAF/internal/event"
	"github.com/WayBetterSolutions/LEAF/internal/models"
	"github.com/WayBetterSolutions/LEAF/internal/registry"
	"github.com/WayBetterSolutions/LEAF/internal/storage"
)

// noteRecord mirrors models.Note with pointer fields so that load can tell
// a missing key apart from a zero value. Entries missing id, title, or
// content are dropped.
type noteRecord struct {
	ID       *int    `json:"id"`
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Created  string  `json:"created"`
	Modified string  `json:"modified"`
}

// Store holds the notes of exactly one collection at a time. All public
// methods are safe for concurrent use; events are published after the
// corresponding persistence call and outside the internal lock.
type Store struct {
	reg    *registry.Registry
	bus    *event.Bus
	logger *slog.Logger

	mu         sync.Mutex
	collection string
	notes      []models.Note
	filtered   []models.Note
	nextID     int
	query      string
}

// New creates an empty store bound to the registry's active collection.
// Call Load before use.
func New(reg *registry.Registry, bus *event.Bus, logger *slog.Logger) *Store {
	return &Store{reg: reg, bus: bus, logger: logger}
}

// Load reads the active collection's notes from disk, replacing the store's
// contents. Invalid entries are dropped, missing timestamps are back-filled
// with the current time, nextID becomes max(id)+1, and the filtered view is
// reset to the full list.
func (s *Store) Load() {
	current := s.reg.Current()

	var (
		notes  []models.Note
		nextID int
	)
	var loadErr error
	if current != "" {
		records, err := storage.ReadJSON(s.reg.FilePath(current), []noteRecord{})
		loadErr = err
		now := time.Now().Format(models.TimeLayout)
		maxID := -1
		for _, rec := range records {
			if rec.ID == nil || rec.Title == nil || rec.Content == nil {
				s.logger.Warn("notestore: dropping invalid note entry", slog.String("collection", current))
				continue
			}
			n := models.Note{
				ID:       *rec.ID,
				Title:    *rec.Title,
				Content:  *rec.Content,
				Created:  rec.Created,
				Modified: rec.Modified,
			}
			if n.Created == "" {
				n.Created = now
			}
			if n.Modified == "" {
				n.Modified = n.Created
			}
			notes = append(notes, n)
			if n.ID > maxID {
				maxID = n.ID
			}
		}
		nextID = maxID + 1
	}

	s.mu.Lock()
	s.collection = current
	s.notes = notes
	s.nextID = nextID
	s.filtered = filterNotes(notes, s.query)
	s.mu.Unlock()

	if loadErr != nil {
		s.bus.Publish(event.Event{Type: event.LoadError, Data: loadErr.Error()})
	}
	s.bus.Publish(event.Event{Type: event.NotesChanged})
	s.bus.Publish(event.Event{Type: event.FilteredChanged})
	s.bus.PublishList(event.ListReset, -1)
}

// Save atomically persists the full note list of the loaded collection.
func (s *Store) Save() error {
	s.mu.Lock()
	collection := s.collection
	notes := make([]models.Note, len(s.notes))
	copy(notes, s.notes)
	s.mu.Unlock()

	if collection == "" {
		return nil
	}
	return s.persist(collection, notes)
}

func (s *Store) persist(collection string, notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	if err := storage.WriteJSON(s.reg.FilePath(collection), notes); err != nil {
		s.bus.Publish(event.Event{Type: event.SaveError, Data: err.Error()})
		return err
	}
	s.bus.Publish(event.Event{Type: event.SaveSuccess})
	return nil
}

// Create adds a note with the given content at the front of the list and
// persists. Returns the assigned id, or -1 when no collection is active or
// persistence failed (the in-memory mutation is rolled back so the caller
// can retry).
func (s *Store) Create(content string) (int, error) {
	s.mu.Lock()
	if s.collection == "" {
		s.mu.Unlock()
		return -1, apperr.ErrNotFound
	}

	id := s.nextID
	s.nextID++
	now := time.Now().Format(models.TimeLayout)
	note := models.Note{
		ID:       id,
		Title:    analytics.GenerateTitle(content),
		Content:  content,
		Created:  now,
		Modified: now,
	}

	prevNotes, prevFiltered := s.notes, s.filtered
	s.notes = append([]models.Note{note}, s.notes...)
	inserted := matches(note, s.query)
	if inserted {
		s.filtered = append([]models.Note{note}, s.filtered...)
	}
	collection := s.collection
	snapshot := make([]models.Note, len(s.notes))
	copy(snapshot, s.notes)
	s.mu.Unlock()

	if err := s.persist(collection, snapshot); err != nil {
		s.mu.Lock()
		s.notes, s.filtered = prevNotes, prevFiltered
		s.mu.Unlock()
		return -1, err
	}

	if inserted {
		s.bus.PublishList(event.ListInsert, 0)
	}
	s.bus.Publish(event.Event{Type: event.NotesChanged})
	return id, nil
}

// Update replaces a note's content, recomputing title and modified time.
// Unknown ids and byte-identical content are silent no-ops.
func (s *Store) Update(id int, content string) error {
	s.mu.Lock()
	if s.collection == "" {
		s.mu.Unlock()
		return nil
	}

	idx := -1
	for i := range s.notes {
		if s.notes[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 || s.notes[idx].Content == content {
		s.mu.Unlock()
		return nil
	}

	prev := s.notes[idx]
	s.notes[idx].Content = content
	s.notes[idx].Title = analytics.GenerateTitle(content)
	s.notes[idx].Modified = time.Now().Format(models.TimeLayout)

	filteredIdx := -1
	for i := range s.filtered {
		if s.filtered[i].ID == id {
			s.filtered[i] = s.notes[idx]
			filteredIdx = i
			break
		}
	}

	collection := s.collection
	snapshot := make([]models.Note, len(s.notes))
	copy(snapshot, s.notes)
	s.mu.Unlock()

	if err := s.persist(collection, snapshot); err != nil {
		s.mu.Lock()
		s.notes[idx] = prev
		if filteredIdx != -1 {
			s.filtered[filteredIdx] = prev
		}
		s.mu.Unlock()
		return err
	}

	if filteredIdx != -1 {
		s.bus.PublishList(event.ListUpdate, filteredIdx, "title", "content", "modified")
	}
	return nil
}

// Delete removes a note from the list and the filtered view and persists.
// Unknown ids are silent no-ops.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	if s.collection == "" {
		s.mu.Unlock()
		return nil
	}

	prevNotes, prevFiltered := s.notes, s.filtered
	found := false
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return nil
	}

	removedAt := -1
	for i := range s.filtered {
		if s.filtered[i].ID == id {
			s.filtered = append(s.filtered[:i:i], s.filtered[i+1:]...)
			removedAt = i
			break
		}
	}

	collection := s.collection
	snapshot := make([]models.Note, len(s.notes))
	copy(snapshot, s.notes)
	s.mu.Unlock()

	if err := s.persist(collection, snapshot); err != nil {
		s.mu.Lock()
		s.notes, s.filtered = prevNotes, prevFiltered
		s.mu.Unlock()
		return err
	}

	if removedAt != -1 {
		s.bus.PublishList(event.ListRemove, removedAt)
	}
	s.bus.Publish(event.Event{Type: event.NotesChanged})
	return nil
}

// Switch saves the loaded collection's notes, switches the registry to
// name, and loads the incoming collection. Unknown or already-active names
// leave the store untouched.
func (s *Store) Switch(name string) {
	if name == s.Collection() {
		return
	}
	if err := s.Save(); err != nil {
		return
	}
	s.reg.Switch(name)
	if s.reg.Current() != s.Collection() {
		s.Load()
	}
}

// SetQuery replaces the search text and recomputes the filtered view. An
// unchanged query is a no-op; a blank query matches everything.
func (s *Store) SetQuery(text string) {
	s.mu.Lock()
	if s.query == text {
		s.mu.Unlock()
		return
	}
	s.query = text
	s.filtered = filterNotes(s.notes, text)
	s.mu.Unlock()

	s.bus.Publish(event.Event{Type: event.FilteredChanged})
	s.bus.PublishList(event.ListReset, -1)
}

// Query returns the current search text.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Collection returns the name of the loaded collection.
func (s *Store) Collection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection
}

// Notes returns a copy of the full note list, newest first.
func (s *Store) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Filtered returns a copy of the filtered view, newest first.
func (s *Store) Filtered() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// Get returns the note with the given id from the full list.
func (s *Store) Get(id int) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

// GetByIndex returns the note at the given index of the filtered view.
func (s *Store) GetByIndex(i int) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.filtered) {
		return models.Note{}, false
	}
	return s.filtered[i], true
}

// InSync reports whether the on-disk backing file matches the in-memory
// note list. The watcher uses it to ignore the store's own writes.
func (s *Store) InSync(fileData []byte) bool {
	s.mu.Lock()
	notes := s.notes
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return false
	}
	return checksum.Sum(data) == checksum.Sum(fileData)
}

func matches(n models.Note, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}

func filterNotes(notes []models.Note, query string) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if matches(n, query) {
			out = append(out, n)
		}
	}
	return out
}
