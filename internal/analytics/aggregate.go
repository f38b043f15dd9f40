package analytics

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/WayBetterSolutions/LEAF/internal/models"
	"github.com/WayBetterSolutions/LEAF/internal/storage"
)

// CollectionSource enumerates the known collections and their backing
// files. Satisfied by the registry.
type CollectionSource interface {
	Collections() []string
	Current() string
	FilePath(name string) string
}

// CollectionStats is the aggregate contribution of one collection.
type CollectionStats struct {
	Name      string `json:"name"`
	Notes     int    `json:"notes"`
	Words     int    `json:"words"`
	Chars     int    `json:"chars"`
	IsCurrent bool   `json:"isCurrent"`
}

// OverallStats is the corpus-wide aggregate across all collections.
type OverallStats struct {
	TotalNotes       int               `json:"totalNotes"`
	TotalWords       int               `json:"totalWords"`
	TotalChars       int               `json:"totalChars"`
	TotalSentences   int               `json:"totalSentences"`
	TotalParagraphs  int               `json:"totalParagraphs"`
	NotesThisWeek    int               `json:"notesThisWeek"`
	NotesThisMonth   int               `json:"notesThisMonth"`
	Collections      []CollectionStats `json:"collections"`
	CollectionsCount int               `json:"collectionsCount"`
}

// ComputeOverallStats reads every collection's backing file independently
// and sums the corpus totals. Collections whose file cannot be read
// contribute zero. A note whose created timestamp does not parse is skipped
// by the recency buckets only; it still counts toward the totals. Nothing
// needs to be loaded into a store; the computation is per request, never
// cached.
func ComputeOverallStats(src CollectionSource) OverallStats {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	current := src.Current()

	overall := OverallStats{}
	for _, name := range src.Collections() {
		notes, _ := storage.ReadJSON(src.FilePath(name), []models.Note{})

		cs := CollectionStats{Name: name, Notes: len(notes), IsCurrent: name == current}
		for _, n := range notes {
			cs.Chars += utf8.RuneCountInString(n.Content)
			if strings.TrimSpace(n.Content) != "" {
				cs.Words += len(strings.Fields(n.Content))
			}
			overall.TotalSentences += countSentences(n.Content)
			overall.TotalParagraphs += countParagraphs(n.Content)

			if n.Created == "" {
				continue
			}
			created, err := time.Parse(models.TimeLayout, n.Created)
			if err != nil {
				continue
			}
			if !created.Before(weekAgo) {
				overall.NotesThisWeek++
			}
			if !created.Before(monthAgo) {
				overall.NotesThisMonth++
			}
		}

		overall.Collections = append(overall.Collections, cs)
		overall.TotalNotes += cs.Notes
		overall.TotalWords += cs.Words
		overall.TotalChars += cs.Chars
	}
	overall.CollectionsCount = len(overall.Collections)
	return overall
}
