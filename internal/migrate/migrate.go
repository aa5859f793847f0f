// Package migrate implements the migration orchestrator: it walks the
// source notebook, flattens every note through name sanitization, collision
// resolution, and attachment deduplication, then runs the global link pass
// and writes the destination tree and the report.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/michelcaradec/evernote-migration/internal"
	"github.com/michelcaradec/evernote-migration/internal/apperr"
	"github.com/michelcaradec/evernote-migration/internal/checksum"
	"github.com/michelcaradec/evernote-migration/internal/evernote"
	"github.com/michelcaradec/evernote-migration/internal/links"
	"github.com/michelcaradec/evernote-migration/internal/models"
	"github.com/michelcaradec/evernote-migration/internal/names"
	"github.com/michelcaradec/evernote-migration/internal/parser"
	"github.com/michelcaradec/evernote-migration/internal/report"
	"github.com/michelcaradec/evernote-migration/internal/storage"
)

// Name scopes of the collision registry. Notes and attachments collide
// independently, both per notebook.
const (
	ScopeNotes       = "notes"
	ScopeAttachments = "attachments"
)

// Summary is the end-of-run account of what happened.
type Summary struct {
	Migrated       int
	Skipped        int
	SkippedFolders []string
	// AttachmentsStored counts attachment files actually written; it stays
	// zero in report-only mode.
	AttachmentsStored int
	AttachmentsReused int
	Links             *links.Stats
}

// Migrator runs one migration over one notebook. State (name registry,
// attachment fingerprints, note collection) lives for a single Run.
type Migrator struct {
	opts   Options
	cfg    internal.MigrationConfig
	tree   *storage.Tree
	db     *evernote.DB
	logger *slog.Logger

	registry *names.Registry
	// dedup maps attachment fingerprints to their stored name.
	dedup map[string]string
}

// New creates a Migrator for the source notebook in opts. db may be nil;
// link resolution is then skipped.
func New(opts Options, cfg internal.MigrationConfig, db *evernote.DB, logger *slog.Logger) (*Migrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("migrate: options: %w", err)
	}
	tree, err := storage.New(opts.Source)
	if err != nil {
		return nil, err
	}
	return &Migrator{
		opts:     opts,
		cfg:      cfg,
		tree:     tree,
		db:       db,
		logger:   logger,
		registry: names.NewRegistry(cfg.MaxNameAttempts),
		dedup:    make(map[string]string),
	}, nil
}

// Run performs the migration: one pass per note folder, a global link pass,
// then the write pass. Malformed note folders are skipped and reported in
// the summary; I/O failures abort the run.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	folders, err := m.tree.ListDirs("")
	if err != nil {
		return nil, err
	}

	if !m.opts.ReportOnly {
		if err := m.tree.MkdirAll(m.cfg.AttachmentsDir); err != nil {
			return nil, err
		}
	}
	m.seedRegistry()

	var notes []*models.Note
	for _, folder := range folders {
		if folder == m.cfg.AttachmentsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.logger.Info("migrate note", slog.String("folder", folder))
		note, err := m.migrateNote(folder, summary)
		if err != nil {
			m.logger.Warn("note skipped",
				slog.String("folder", folder),
				slog.String("error", err.Error()))
			summary.Skipped++
			summary.SkippedFolders = append(summary.SkippedFolders, folder)
			continue
		}
		notes = append(notes, note)
	}

	// Link targets may appear later in traversal order, so the link pass
	// only starts once every note has its final name.
	if m.db.Available() && !m.opts.ReportOnly {
		m.logger.Info("process note links")
		summary.Links = links.NewResolver(m.db, m.cfg.NoteExtension, m.logger).Resolve(notes)
	}

	if !m.opts.ReportOnly {
		for _, note := range notes {
			if err := m.tree.Write(note.Name+m.cfg.NoteExtension, []byte(note.Body)); err != nil {
				return nil, err
			}
			if !m.opts.Keep {
				m.logger.Info("delete folder", slog.String("folder", note.SourceDir))
				if err := m.tree.RemoveAll(note.SourceDir); err != nil {
					return nil, err
				}
			}
		}
	}

	if m.opts.ReportPath != "" {
		if err := report.Write(m.opts.ReportPath, notes); err != nil {
			return nil, err
		}
	}

	summary.Migrated = len(notes)
	m.logSummary(summary)
	return summary, nil
}

// seedRegistry reserves the names already present at the destination so a
// re-run never clobbers earlier output.
func (m *Migrator) seedRegistry() {
	if existing, err := m.tree.ListFiles("", m.cfg.NoteExtension); err == nil {
		for _, name := range existing {
			m.registry.Reserve(ScopeNotes, strings.TrimSuffix(name, m.cfg.NoteExtension))
		}
	}
	if existing, err := m.tree.ListFiles(m.cfg.AttachmentsDir, ""); err == nil {
		for _, name := range existing {
			m.registry.Reserve(ScopeAttachments, name)
		}
	}
}

// migrateNote takes one source folder through the sanitize and attachment
// phases and returns the in-memory note, ready for the link pass.
func (m *Migrator) migrateNote(folder string, summary *Summary) (*models.Note, error) {
	files, err := m.tree.ListFiles(folder, m.cfg.NoteExtension)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("migrate: %d body files in %s: %w", len(files), folder, apperr.ErrNoteMalformed)
	}

	data, err := m.tree.Read(filepath.Join(folder, files[0]))
	if err != nil {
		return nil, err
	}
	meta, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	title := meta.Title
	if title == "" {
		title = folder
	}

	content, attachments := m.resolveAttachments(folder, string(data), summary)
	content = parser.StandardizeTags(content, meta.Tags)

	candidate := names.Sanitize(title, m.cfg.MaxNameLength)
	var name string
	if m.opts.Overwrite && len(attachments) == 0 {
		// Replace an existing single-file note instead of suffixing.
		m.registry.Reserve(ScopeNotes, candidate)
		name = candidate
	} else {
		name, err = m.registry.Resolve(ScopeNotes, candidate)
		if err != nil {
			return nil, err
		}
	}

	note := &models.Note{
		SourceDir:   folder,
		Name:        name,
		Title:       title,
		Body:        content,
		Size:        len(content),
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
		Tags:        meta.Tags,
		Attachments: attachments,
	}
	if m.db.Available() {
		if id, ok := m.db.LookupID(title, meta.CreatedAt); ok {
			note.ID = id
		} else {
			m.logger.Warn("note id not resolved", slog.String("note", name))
		}
	}
	return note, nil
}

// resolveAttachments rewrites every local attachment reference of content
// to its deduplicated stored location, copying bytes on first occurrence.
// A reference that cannot be resolved is logged and left untouched.
func (m *Migrator) resolveAttachments(folder, content string, summary *Summary) (string, []models.Attachment) {
	refs := parser.AttachmentRefs(content)
	resolved := make(map[string]string, len(refs)) // raw reference -> new link
	var attachments []models.Attachment

	// Names are assigned in document order so the first-seen reference wins
	// an unsuffixed name and dedup picks the first occurrence.
	for _, ref := range refs {
		if _, ok := resolved[ref.Path]; ok {
			continue
		}
		att, link, err := m.storeAttachment(folder, ref.Path)
		if err != nil {
			m.logger.Warn("attachment not migrated",
				slog.String("folder", folder),
				slog.String("path", ref.Path),
				slog.String("error", err.Error()))
			continue
		}
		resolved[ref.Path] = link
		attachments = append(attachments, att)
		if att.Reused {
			summary.AttachmentsReused++
		} else if !m.opts.ReportOnly {
			summary.AttachmentsStored++
		}
	}

	// Rewriting runs in reverse so earlier spans stay valid.
	for i := len(refs) - 1; i >= 0; i-- {
		ref := refs[i]
		newLink, ok := resolved[ref.Path]
		if !ok {
			continue
		}
		content = content[:ref.Start] + newLink + content[ref.End:]
	}
	return content, attachments
}

// storeAttachment decides the stored name of one attachment. Byte-identical
// content reuses the first stored copy regardless of its original name.
func (m *Migrator) storeAttachment(folder, rawPath string) (models.Attachment, string, error) {
	srcRel := filepath.Join(folder, decodePath(rawPath))
	abs, err := m.tree.Abs(srcRel)
	if err != nil {
		return models.Attachment{}, "", err
	}
	fingerprint, size, err := checksum.File(abs)
	if err != nil {
		return models.Attachment{}, "", err
	}

	att := models.Attachment{
		SourcePath:  rawPath,
		Size:        size,
		Fingerprint: fingerprint,
	}

	if stored, ok := m.dedup[fingerprint]; ok {
		att.Name = stored
		att.Reused = true
		return att, path.Join(m.cfg.AttachmentsDir, stored), nil
	}

	sanitized := names.Sanitize(filepath.Base(decodePath(rawPath)), m.cfg.MaxNameLength)
	stored, err := m.registry.Resolve(ScopeAttachments, sanitized)
	if err != nil {
		return models.Attachment{}, "", err
	}
	if !m.opts.ReportOnly {
		if err := m.tree.Copy(srcRel, filepath.Join(m.cfg.AttachmentsDir, stored)); err != nil {
			return models.Attachment{}, "", err
		}
	}
	m.dedup[fingerprint] = stored
	att.Name = stored
	return att, path.Join(m.cfg.AttachmentsDir, stored), nil
}

// decodePath undoes percent-encoding the converter applies to link targets.
func decodePath(p string) string {
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}

func (m *Migrator) logSummary(s *Summary) {
	attrs := []any{
		slog.Int("migrated", s.Migrated),
		slog.Int("skipped", s.Skipped),
		slog.Int("attachments_stored", s.AttachmentsStored),
		slog.Int("attachments_reused", s.AttachmentsReused),
	}
	if s.Links != nil {
		attrs = append(attrs,
			slog.Int("links_resolved", s.Links.Resolved),
			slog.Int("links_unresolved", s.Links.UnresolvedTotal()),
			slog.Int("backlinks", s.Links.Backlinks))
	}
	m.logger.Info("migration done", attrs...)
	for _, folder := range s.SkippedFolders {
		m.logger.Warn("needs manual follow-up", slog.String("folder", folder))
	}
}
