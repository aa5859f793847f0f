// Package evernote reads the local Evernote database used to resolve note
// identifiers. The database is an optional input: a nil *DB is valid and
// every lookup on it reports a miss.
package evernote

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/michelcaradec/evernote-migration/internal/names"
)

// NoteID pairs an Evernote identifier with the note creation date, which
// disambiguates duplicate titles.
type NoteID struct {
	ID        string
	CreatedAt time.Time
}

// DB is a read-only view over the Evernote local database.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger

	loaded  bool
	byTitle map[string][]NoteID
	ids     map[string]struct{}
}

// Open opens the Evernote database in read-only mode.
func Open(path string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("evernote: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("evernote: ping: %w", err)
	}
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Available reports whether lookups can be served.
func (db *DB) Available() bool {
	return db != nil && db.conn != nil
}

// load scans the note table once and builds the title index. Deleted notes
// are excluded. Titles are normalized so they compare equal with titles
// extracted from migrated notes.
func (db *DB) load() error {
	if db.loaded {
		return nil
	}

	rows, err := db.conn.Query(`SELECT id, label, created FROM Nodes_Note WHERE deleted IS NULL`)
	if err != nil {
		return fmt.Errorf("evernote: query notes: %w", err)
	}
	defer rows.Close()

	db.byTitle = make(map[string][]NoteID)
	db.ids = make(map[string]struct{})
	for rows.Next() {
		var (
			id, label string
			createdMs int64
		)
		if err := rows.Scan(&id, &label, &createdMs); err != nil {
			return fmt.Errorf("evernote: scan note: %w", err)
		}
		title := names.Normalize(label)
		db.byTitle[title] = append(db.byTitle[title], NoteID{
			ID:        id,
			CreatedAt: time.UnixMilli(createdMs).UTC(),
		})
		db.ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("evernote: scan notes: %w", err)
	}

	db.loaded = true
	return nil
}

// LookupID returns the Evernote identifier of the note with the given title.
// Duplicate titles are disambiguated by creation date; when that fails the
// note stays unidentified and a warning is logged.
func (db *DB) LookupID(title string, created time.Time) (string, bool) {
	if !db.Available() || title == "" {
		return "", false
	}
	if err := db.load(); err != nil {
		db.logger.Warn("evernote db scan failed", slog.String("error", err.Error()))
		return "", false
	}

	candidates, ok := db.byTitle[names.Normalize(title)]
	if !ok {
		db.logger.Warn("note id not found", slog.String("title", title))
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0].ID, true
	}
	if created.IsZero() {
		db.logger.Warn("cannot disambiguate duplicate title", slog.String("title", title))
		return "", false
	}

	var matches []NoteID
	for _, c := range candidates {
		if c.CreatedAt.Truncate(time.Second).Equal(created.UTC().Truncate(time.Second)) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 1 {
		return matches[0].ID, true
	}
	db.logger.Warn("ambiguous note title", slog.String("title", title))
	return "", false
}

// HasNote reports whether the identifier exists in the database. Used to
// distinguish links to notes from other notebooks from dangling markers.
func (db *DB) HasNote(id string) bool {
	if !db.Available() {
		return false
	}
	if err := db.load(); err != nil {
		return false
	}
	_, ok := db.ids[id]
	return ok
}
