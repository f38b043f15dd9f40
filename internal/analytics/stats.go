package analytics

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/WayBetterSolutions/LEAF/internal/models"
)

// wordPunct is the punctuation stripped from word boundaries before
// measuring length, uniqueness, and frequency.
const wordPunct = `.,!?;:"()[]{}`

// stopWords are excluded from the most-common-words table.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "i": {}, "you": {},
	"he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "this": {},
	"that": {}, "these": {}, "those": {},
}

// WordCount is one row of the most-common-words table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// NoteStats are the derived text statistics of a single note.
type NoteStats struct {
	Title                       string      `json:"title"`
	Chars                       int         `json:"chars"`
	CharsNoSpaces               int         `json:"charsNoSpaces"`
	Words                       int         `json:"words"`
	UniqueWords                 int         `json:"uniqueWords"`
	Lines                       int         `json:"lines"`
	Paragraphs                  int         `json:"paragraphs"`
	Sentences                   int         `json:"sentences"`
	DialogueLines               int         `json:"dialogueLines"`
	AverageWordLength           float64     `json:"averageWordLength"`
	AverageSentenceLength       float64     `json:"averageSentenceLength"`
	LexicalDiversity            float64     `json:"lexicalDiversity"`
	ReadingTimeMinutes          float64     `json:"readingTimeMinutes"`
	SpeakingTimeMinutes         float64     `json:"speakingTimeMinutes"`
	EstimatedWritingTimeMinutes float64     `json:"estimatedWritingTimeMinutes"`
	MostCommonWords             []WordCount `json:"mostCommonWords"`
	Created                     string      `json:"created"`
	Modified                    string      `json:"modified"`
}

// ComputeNoteStats derives the statistics record for a note.
func ComputeNoteStats(note models.Note) NoteStats {
	content := note.Content
	words := strings.Fields(content)

	stats := NoteStats{
		Title:         note.Title,
		Chars:         utf8.RuneCountInString(content),
		CharsNoSpaces: utf8.RuneCountInString(strings.ReplaceAll(content, " ", "")),
		Words:         len(words),
		Paragraphs:    countParagraphs(content),
		Sentences:     countSentences(content),
		Created:       note.Created,
		Modified:      note.Modified,
	}
	if content != "" {
		stats.Lines = strings.Count(content, "\n") + 1
	}

	var lengthSum int
	unique := make(map[string]struct{})
	for _, w := range words {
		stripped := strings.Trim(w, wordPunct)
		lengthSum += utf8.RuneCountInString(stripped)
		if stripped != "" {
			unique[strings.ToLower(stripped)] = struct{}{}
		}
	}
	stats.UniqueWords = len(unique)

	if len(words) > 0 {
		stats.AverageWordLength = round1(float64(lengthSum) / float64(len(words)))
		stats.LexicalDiversity = round3(float64(len(unique)) / float64(len(words)))
	}
	if stats.Sentences > 0 {
		stats.AverageSentenceLength = round1(float64(stats.Words) / float64(stats.Sentences))
	}

	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, `"`) || strings.HasPrefix(t, "'") {
			stats.DialogueLines++
		}
	}

	stats.MostCommonWords = topContentWords(words, 3)

	if stats.Words > 0 {
		stats.ReadingTimeMinutes = float64(stats.Words) / 200
		stats.SpeakingTimeMinutes = float64(stats.Words) / 150
		stats.EstimatedWritingTimeMinutes = float64(stats.Words) / 25
	}
	return stats
}

// topContentWords tallies case-folded, punctuation-stripped words that are
// not stop words and longer than two runes, returning the n most frequent.
// Ties keep the first-encountered order.
func topContentWords(words []string, n int) []WordCount {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		stripped := strings.ToLower(strings.Trim(w, wordPunct))
		if stripped == "" || utf8.RuneCountInString(stripped) <= 2 {
			continue
		}
		if _, stop := stopWords[stripped]; stop {
			continue
		}
		if _, seen := counts[stripped]; !seen {
			order = append(order, stripped)
		}
		counts[stripped]++
	}

	// Stable selection sort over the first-encountered order; the table is
	// tiny so quadratic selection keeps tie order without extra bookkeeping.
	out := make([]WordCount, 0, n)
	picked := make(map[string]struct{})
	for len(out) < n {
		best := ""
		bestCount := 0
		for _, w := range order {
			if _, ok := picked[w]; ok {
				continue
			}
			if counts[w] > bestCount {
				best, bestCount = w, counts[w]
			}
		}
		if best == "" {
			break
		}
		picked[best] = struct{}{}
		out = append(out, WordCount{Word: best, Count: bestCount})
	}
	return out
}

// countSentences counts non-blank segments split on '.', '!', and '?'.
func countSentences(content string) int {
	segments := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// countParagraphs counts non-blank blocks separated by a blank line.
func countParagraphs(content string) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}
	n := 0
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
