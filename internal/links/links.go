// Package links rewrites Evernote note-to-note markers into relative file
// links and synthesizes backlink sections.
package links

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/michelcaradec/evernote-migration/internal/evernote"
	"github.com/michelcaradec/evernote-migration/internal/models"
	"github.com/michelcaradec/evernote-migration/internal/parser"
)

// Unresolved marker reasons. These are expected, reportable outcomes of a
// run, not faults.
const (
	ReasonUnknownTarget = "unknown-target"
	ReasonOtherNotebook = "other-notebook"
)

// Stats summarizes a link resolution pass.
type Stats struct {
	Resolved   int
	Unresolved map[string]int
	Backlinks  int
}

func (s *Stats) miss(reason string) {
	if s.Unresolved == nil {
		s.Unresolved = make(map[string]int)
	}
	s.Unresolved[reason]++
}

// UnresolvedTotal returns the number of markers left untouched.
func (s *Stats) UnresolvedTotal() int {
	total := 0
	for _, n := range s.Unresolved {
		total += n
	}
	return total
}

// Index maps Evernote identifiers to the final file names of the notes
// migrated in this run. Read-only once built.
type Index struct {
	byID map[string]string
}

// NewIndex builds the index from the migrated notes. Notes without an
// identifier are not addressable and stay out of the index.
func NewIndex(notes []*models.Note) *Index {
	byID := make(map[string]string, len(notes))
	for _, n := range notes {
		if n.ID != "" {
			byID[n.ID] = n.Name
		}
	}
	return &Index{byID: byID}
}

// Lookup returns the file name migrated under the given identifier.
func (ix *Index) Lookup(id string) (string, bool) {
	name, ok := ix.byID[id]
	return name, ok
}

// Resolver rewrites note markers against an Index, consulting the Evernote
// database to classify misses. ext is the note file extension used when
// forming relative links.
type Resolver struct {
	db     *evernote.DB
	ext    string
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(db *evernote.DB, ext string, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, ext: ext, logger: logger}
}

// Resolve runs the two link passes over the in-memory note collection:
// forward markers first, then backlink synthesis once every forward pass is
// done. Bodies are mutated in place; nothing else changes.
func (r *Resolver) Resolve(notes []*models.Note) *Stats {
	stats := &Stats{}
	index := NewIndex(notes)

	byName := make(map[string]*models.Note, len(notes))
	for _, n := range notes {
		byName[n.Name] = n
	}

	// Backlink sources per target, in traversal order, duplicates suppressed.
	backlinks := make(map[string][]string)
	seen := make(map[string]struct{})

	for _, note := range notes {
		refs := parser.NoteLinks(note.Body)
		// Reverse order keeps earlier spans valid while rewriting.
		for i := len(refs) - 1; i >= 0; i-- {
			ref := refs[i]
			target, ok := index.Lookup(ref.ID)
			if !ok {
				reason := ReasonUnknownTarget
				if r.db.HasNote(ref.ID) {
					// The note exists but was not migrated in this run:
					// it lives in another notebook.
					reason = ReasonOtherNotebook
				}
				stats.miss(reason)
				r.logger.Warn("unresolved note link",
					slog.String("note", note.Name),
					slog.String("label", ref.Label),
					slog.String("reason", reason))
				continue
			}

			note.Body = note.Body[:ref.Start] + "./" + target + r.ext + note.Body[ref.End:]
			stats.Resolved++

			if target == note.Name {
				continue
			}
			edge := note.Name + "\x00" + target
			if _, dup := seen[edge]; dup {
				continue
			}
			seen[edge] = struct{}{}
			backlinks[target] = append(backlinks[target], note.Name)
		}
	}

	for _, note := range notes {
		sources := backlinks[note.Name]
		if len(sources) == 0 {
			continue
		}
		note.Body = appendBacklinks(note.Body, sources, r.ext)
		stats.Backlinks += len(sources)
	}

	return stats
}

// appendBacklinks adds a backlink section at the end of the note body.
func appendBacklinks(body string, sources []string, ext string) string {
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n---\n\n## Backlinks\n\n")
	for _, src := range sources {
		fmt.Fprintf(&b, "- [%s](./%s%s)\n", src, src, ext)
	}
	return b.String()
}
