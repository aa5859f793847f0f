// Package internal holds the application configuration.
package internal

import (
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Migration MigrationConfig   `yaml:"migration"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Migration.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// MigrationConfig holds the tunables of the reconciliation engine.
type MigrationConfig struct {
	// AttachmentsDir is the shared attachments folder name at the
	// notebook root.
	AttachmentsDir string `yaml:"attachments_dir"`
	// NoteExtension is the extension of migrated note files.
	NoteExtension string `yaml:"note_extension"`
	// MaxNameLength bounds sanitized note and attachment names, in runes.
	MaxNameLength int `yaml:"max_name_length"`
	// MaxNameAttempts caps collision suffixing before a name is given up on.
	MaxNameAttempts int `yaml:"max_name_attempts"`
}

// Validate validates the migration configuration.
func (c *MigrationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AttachmentsDir, validation.Required,
			validation.By(plainDirName)),
		validation.Field(&c.NoteExtension, validation.Required,
			validation.Match(extensionRe)),
		validation.Field(&c.MaxNameLength, validation.Required, validation.Min(8), validation.Max(255)),
		validation.Field(&c.MaxNameAttempts, validation.Required, validation.Min(1)),
	)
}

func plainDirName(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return validation.NewError("validation_plain_dir", "must be a plain directory name")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Migration: MigrationConfig{
			AttachmentsDir:  ".attachments",
			NoteExtension:   ".md",
			MaxNameLength:   100,
			MaxNameAttempts: 10000,
		},
	}
}
