// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Data     DataConfig        `yaml:"data"`
	Defaults CardDefaults      `yaml:"defaults"`
	Layout   LayoutConfig      `yaml:"layout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	return c.Layout.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// DataConfig holds the path to the data directory. The registry file and
// the per-collection files live under it.
type DataConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RegistryFile returns the path of the collection registry document.
func (c *DataConfig) RegistryFile() string {
	return filepath.Join(c.Path, "collections.json")
}

// CollectionsDir returns the directory holding per-collection files.
func (c *DataConfig) CollectionsDir() string {
	return filepath.Join(c.Path, "collections")
}

// CardDefaults seeds the layout settings of newly created collections.
// Switching collections writes the active collection's stored layout back
// into these fields so the presentation layer reads current values.
type CardDefaults struct {
	CardWidth  int `yaml:"card_width"`
	CardHeight int `yaml:"card_height"`
}

// Validate validates the card defaults.
func (c *CardDefaults) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CardWidth, validation.Required, validation.Min(150), validation.Max(500)),
		validation.Field(&c.CardHeight, validation.Required, validation.Min(120), validation.Max(400)),
	)
}

// CardDefaults returns the current global card dimensions.
func (c *Config) CardDefaults() (width, height int) {
	return c.Defaults.CardWidth, c.Defaults.CardHeight
}

// SetCardDefaults updates the global card dimensions. Called by the
// registry when the active collection changes.
func (c *Config) SetCardDefaults(width, height int) {
	c.Defaults.CardWidth = width
	c.Defaults.CardHeight = height
}

// LayoutConfig carries the column-fitting thresholds. These numbers varied
// across versions of the layout heuristic, so they are configuration rather
// than invariants.
type LayoutConfig struct {
	Spacing      int `yaml:"spacing"`
	MinCardWidth int `yaml:"min_card_width"`
	MaxColumns   int `yaml:"max_columns"`
}

// Validate validates the layout thresholds.
func (c *LayoutConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Spacing, validation.Min(0)),
		validation.Field(&c.MinCardWidth, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxColumns, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Data: DataConfig{
			Path: "./data",
		},
		Defaults: CardDefaults{
			CardWidth:  480,
			CardHeight: 400,
		},
		Layout: LayoutConfig{
			Spacing:      16,
			MinCardWidth: 200,
			MaxColumns:   4,
		},
	}
}
