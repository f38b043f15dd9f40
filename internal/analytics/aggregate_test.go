package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/WayBetterSolutions/LEAF/internal/models"
	"github.com/WayBetterSolutions/LEAF/internal/storage"
)

type fakeSource struct {
	dir     string
	names   []string
	current string
}

func (s *fakeSource) Collections() []string { return s.names }
func (s *fakeSource) Current() string       { return s.current }
func (s *fakeSource) FilePath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func TestComputeOverallStats(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{dir: dir, names: []string{"Work", "Ideas"}, current: "Work"}

	recent := time.Now().Format(models.TimeLayout)
	notes := []models.Note{
		{ID: 0, Title: "one", Content: "one two three", Created: recent, Modified: recent},
		{ID: 1, Title: "two", Content: "four five", Created: "not-a-timestamp", Modified: recent},
	}
	if err := storage.WriteJSON(src.FilePath("Work"), notes); err != nil {
		t.Fatal(err)
	}
	// "Ideas" has no backing file; it must contribute zero, not an error.

	got := ComputeOverallStats(src)

	if got.TotalNotes != 2 {
		t.Errorf("TotalNotes = %d, want 2", got.TotalNotes)
	}
	if got.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", got.TotalWords)
	}
	if got.TotalChars != 22 {
		t.Errorf("TotalChars = %d, want 22", got.TotalChars)
	}
	if got.TotalSentences != 2 {
		t.Errorf("TotalSentences = %d, want 2", got.TotalSentences)
	}
	if got.TotalParagraphs != 2 {
		t.Errorf("TotalParagraphs = %d, want 2", got.TotalParagraphs)
	}
	// The bad timestamp is skipped by the recency buckets only.
	if got.NotesThisWeek != 1 {
		t.Errorf("NotesThisWeek = %d, want 1", got.NotesThisWeek)
	}
	if got.NotesThisMonth != 1 {
		t.Errorf("NotesThisMonth = %d, want 1", got.NotesThisMonth)
	}
	if got.CollectionsCount != 2 || len(got.Collections) != 2 {
		t.Fatalf("CollectionsCount = %d, Collections = %v", got.CollectionsCount, got.Collections)
	}

	work := got.Collections[0]
	if work.Name != "Work" || !work.IsCurrent || work.Notes != 2 || work.Words != 5 || work.Chars != 22 {
		t.Errorf("Work stats = %+v", work)
	}
	ideas := got.Collections[1]
	if ideas.Name != "Ideas" || ideas.IsCurrent || ideas.Notes != 0 || ideas.Words != 0 {
		t.Errorf("Ideas stats = %+v", ideas)
	}
}

func TestComputeOverallStatsOldNotesOutsideBuckets(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{dir: dir, names: []string{"Archive"}, current: "Archive"}

	old := time.Now().AddDate(0, 0, -45).Format(models.TimeLayout)
	lastWeek := time.Now().AddDate(0, 0, -10).Format(models.TimeLayout)
	notes := []models.Note{
		{ID: 0, Title: "a", Content: "alpha", Created: old, Modified: old},
		{ID: 1, Title: "b", Content: "beta", Created: lastWeek, Modified: lastWeek},
	}
	if err := storage.WriteJSON(src.FilePath("Archive"), notes); err != nil {
		t.Fatal(err)
	}

	got := ComputeOverallStats(src)
	if got.NotesThisWeek != 0 {
		t.Errorf("NotesThisWeek = %d, want 0", got.NotesThisWeek)
	}
	if got.NotesThisMonth != 1 {
		t.Errorf("NotesThisMonth = %d, want 1", got.NotesThisMonth)
	}
}

func TestComputeOverallStatsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{dir: dir, names: []string{"Bad"}, current: "Bad"}
	if err := os.WriteFile(src.FilePath("Bad"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := ComputeOverallStats(src)
	if got.TotalNotes != 0 || got.CollectionsCount != 1 {
		t.Errorf("got %+v, want zero totals with one collection row", got)
	}
}
