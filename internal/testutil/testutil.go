// Package testutil provides shared test helpers for setting up notebooks
// and Evernote databases.
package testutil

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/michelcaradec/evernote-migration/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNotebook creates a temporary notebook directory with a storage tree.
func TestNotebook(t *testing.T) (string, *storage.Tree) {
	t.Helper()
	dir := t.TempDir()
	tree, err := storage.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, tree
}

// WriteFile writes content at rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// DBNote is one row of a fixture Evernote database.
type DBNote struct {
	ID        string
	Label     string
	CreatedMs int64
	Deleted   bool
}

// TestEvernoteDB creates a temporary Evernote database holding the given
// notes and returns its path.
func TestEvernoteDB(t *testing.T, notes ...DBNote) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evernote.db")

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Exec(`CREATE TABLE Nodes_Note (
		id      TEXT PRIMARY KEY,
		label   TEXT NOT NULL,
		created INTEGER NOT NULL,
		deleted INTEGER
	)`); err != nil {
		t.Fatal(err)
	}
	for _, n := range notes {
		var deleted interface{}
		if n.Deleted {
			deleted = 1
		}
		if _, err := conn.Exec(
			`INSERT INTO Nodes_Note (id, label, created, deleted) VALUES (?, ?, ?, ?)`,
			n.ID, n.Label, n.CreatedMs, deleted,
		); err != nil {
			t.Fatal(err)
		}
	}
	return path
}
