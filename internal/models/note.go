// Package models defines the domain types for LEAF.
package models

// TimeLayout is the format used for persisted note timestamps.
// Timestamps are stored as strings so that legacy or hand-edited values
// survive a load; consumers parse them where they need real times.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// Note is a single note inside a collection. The title is always derived
// from the content, never set independently.
type Note struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

// Layout holds per-collection card layout preferences.
type Layout struct {
	CardWidth        int `json:"cardWidth"`
	CardHeight       int `json:"cardHeight"`
	PreferredColumns int `json:"preferredColumns"`
}

// RegistryDoc is the persisted shape of the collection registry.
type RegistryDoc struct {
	Collections       []string          `json:"collections"`
	CurrentCollection string            `json:"currentCollection"`
	Settings          map[string]Layout `json:"collectionSettings"`
}

// CollectionInfo is a summary row for one collection, computed from its
// backing file without loading the notes into a store.
type CollectionInfo struct {
	Name      string `json:"name"`
	NoteCount int    `json:"noteCount"`
	FileSize  int64  `json:"fileSize"`
	IsCurrent bool   `json:"isCurrent"`
}
