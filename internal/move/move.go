// Package move relocates previously migrated notes between destination
// trees, selecting them from a migration report by update date.
package move

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/michelcaradec/evernote-migration/internal"
	"github.com/michelcaradec/evernote-migration/internal/migrate"
	"github.com/michelcaradec/evernote-migration/internal/models"
	"github.com/michelcaradec/evernote-migration/internal/names"
	"github.com/michelcaradec/evernote-migration/internal/report"
	"github.com/michelcaradec/evernote-migration/internal/storage"
)

// Options are the per-run settings of a move.
type Options struct {
	// Source is the migrated notebook to move notes out of.
	Source string
	// Dest is the notebook to move notes into; created when absent.
	Dest string
	// ReportPath is the report of the migration that produced Source.
	ReportPath string
	// UpdatedSince selects notes updated on or after this date (inclusive).
	// Zero selects every remaining note.
	UpdatedSince time.Time
}

// Validate checks option consistency.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Source, validation.Required),
		validation.Field(&o.Dest, validation.Required),
		validation.Field(&o.ReportPath, validation.Required),
	)
}

// Summary is the end-of-run account of a move.
type Summary struct {
	Moved            int
	SkippedMissing   int
	AttachmentsMoved int
}

// Select returns the report notes matching the date threshold. A zero
// threshold selects everything, the intended "everything else" partition of
// a multi-step split.
func Select(notes []*models.Note, updatedSince time.Time) []*models.Note {
	if updatedSince.IsZero() {
		return notes
	}
	var out []*models.Note
	for _, n := range notes {
		if !n.UpdatedAt.IsZero() && !n.UpdatedAt.Before(updatedSince) {
			out = append(out, n)
		}
	}
	return out
}

// Run moves the selected notes and their attachments from the source tree
// to the destination tree. Names are re-resolved against the destination
// scopes; sources already gone are skipped so an interrupted or overlapping
// move can be re-run.
func Run(opts Options, cfg internal.MigrationConfig, logger *slog.Logger) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("move: options: %w", err)
	}

	reported, err := report.Read(opts.ReportPath)
	if err != nil {
		return nil, err
	}
	// Reports from the predecessor tool carry the note extension in the
	// name column; names are extensionless everywhere else.
	for _, n := range reported {
		n.Name = strings.TrimSuffix(n.Name, cfg.NoteExtension)
	}
	selected := Select(reported, opts.UpdatedSince)

	src, err := storage.New(opts.Source)
	if err != nil {
		return nil, err
	}
	dst, err := storage.Create(opts.Dest)
	if err != nil {
		return nil, err
	}
	if err := dst.MkdirAll(cfg.AttachmentsDir); err != nil {
		return nil, err
	}

	registry := names.NewRegistry(cfg.MaxNameAttempts)
	if existing, err := dst.ListFiles("", cfg.NoteExtension); err == nil {
		for _, name := range existing {
			registry.Reserve(migrate.ScopeNotes, strings.TrimSuffix(name, cfg.NoteExtension))
		}
	}
	if existing, err := dst.ListFiles(cfg.AttachmentsDir, ""); err == nil {
		for _, name := range existing {
			registry.Reserve(migrate.ScopeAttachments, name)
		}
	}

	summary := &Summary{}
	for _, note := range selected {
		if err := moveNote(src, dst, registry, cfg, note, summary, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("move done",
		slog.Int("moved", summary.Moved),
		slog.Int("skipped_missing", summary.SkippedMissing),
		slog.Int("attachments_moved", summary.AttachmentsMoved))
	return summary, nil
}

func moveNote(src, dst *storage.Tree, registry *names.Registry, cfg internal.MigrationConfig, note *models.Note, summary *Summary, logger *slog.Logger) error {
	// Attachments move even when the note file is already gone, to finish
	// an interrupted earlier move.
	renamed := make(map[string]string)
	for _, att := range note.Attachments {
		srcRel := filepath.Join(cfg.AttachmentsDir, att.Name)
		if !src.Exists(srcRel) {
			continue
		}
		final, err := registry.Resolve(migrate.ScopeAttachments, att.Name)
		if err != nil {
			logger.Warn("attachment not moved",
				slog.String("name", att.Name),
				slog.String("error", err.Error()))
			continue
		}
		if err := src.MoveTo(srcRel, dst, filepath.Join(cfg.AttachmentsDir, final)); err != nil {
			return err
		}
		if final != att.Name {
			renamed[att.Name] = final
		}
		summary.AttachmentsMoved++
		logger.Info("moved attachment", slog.String("name", final))
	}

	srcFile := note.Name + cfg.NoteExtension
	if !src.Exists(srcFile) {
		summary.SkippedMissing++
		return nil
	}

	final, err := registry.Resolve(migrate.ScopeNotes, note.Name)
	if err != nil {
		logger.Warn("note not moved",
			slog.String("name", note.Name),
			slog.String("error", err.Error()))
		return nil
	}

	content, err := src.Read(srcFile)
	if err != nil {
		return err
	}
	if len(renamed) > 0 {
		// A suffixed attachment breaks the note's references; fix them up.
		body := string(content)
		for old, now := range renamed {
			body = strings.ReplaceAll(body,
				cfg.AttachmentsDir+"/"+old,
				cfg.AttachmentsDir+"/"+now)
		}
		content = []byte(body)
	}
	if err := dst.Write(final+cfg.NoteExtension, content); err != nil {
		return err
	}
	if err := src.Remove(srcFile); err != nil {
		return err
	}
	summary.Moved++
	logger.Info("moved note", slog.String("name", final))
	return nil
}
