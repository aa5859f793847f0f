package evernote_test

import (
	"testing"
	"time"

	"github.com/michelcaradec/evernote-migration/internal/evernote"
	"github.com/michelcaradec/evernote-migration/internal/testutil"
)

func openTestDB(t *testing.T, notes ...testutil.DBNote) *evernote.DB {
	t.Helper()
	path := testutil.TestEvernoteDB(t, notes...)
	db, err := evernote.Open(path, testutil.Logger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLookupID_UniqueTitle(t *testing.T) {
	db := openTestDB(t, testutil.DBNote{ID: "id-1", Label: "My Trip", CreatedMs: 1716193800000})
	id, ok := db.LookupID("My Trip", time.Time{})
	if !ok || id != "id-1" {
		t.Errorf("got (%q, %v), want (id-1, true)", id, ok)
	}
}

func TestLookupID_NormalizedTitle(t *testing.T) {
	db := openTestDB(t, testutil.DBNote{ID: "id-1", Label: "Résumé", CreatedMs: 0})
	id, ok := db.LookupID("Resume", time.Time{})
	if !ok || id != "id-1" {
		t.Errorf("got (%q, %v), want (id-1, true)", id, ok)
	}
}

func TestLookupID_DuplicateTitleDisambiguatedByDate(t *testing.T) {
	created := time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)
	db := openTestDB(t,
		testutil.DBNote{ID: "id-1", Label: "Notes", CreatedMs: created.UnixMilli()},
		testutil.DBNote{ID: "id-2", Label: "Notes", CreatedMs: created.Add(48 * time.Hour).UnixMilli()},
	)

	id, ok := db.LookupID("Notes", created)
	if !ok || id != "id-1" {
		t.Errorf("got (%q, %v), want (id-1, true)", id, ok)
	}

	// Without a date the duplicate cannot be told apart.
	if _, ok := db.LookupID("Notes", time.Time{}); ok {
		t.Error("expected ambiguous lookup to fail")
	}
}

func TestLookupID_UnknownTitle(t *testing.T) {
	db := openTestDB(t, testutil.DBNote{ID: "id-1", Label: "Known", CreatedMs: 0})
	if _, ok := db.LookupID("Unknown", time.Time{}); ok {
		t.Error("expected miss for unknown title")
	}
}

func TestLookupID_DeletedNotesExcluded(t *testing.T) {
	db := openTestDB(t, testutil.DBNote{ID: "id-1", Label: "Gone", CreatedMs: 0, Deleted: true})
	if _, ok := db.LookupID("Gone", time.Time{}); ok {
		t.Error("expected deleted note to be invisible")
	}
}

func TestHasNote(t *testing.T) {
	db := openTestDB(t, testutil.DBNote{ID: "id-1", Label: "A", CreatedMs: 0})
	if !db.HasNote("id-1") {
		t.Error("expected id-1 to exist")
	}
	if db.HasNote("id-2") {
		t.Error("expected id-2 to be absent")
	}
}

func TestNilDB(t *testing.T) {
	var db *evernote.DB
	if db.Available() {
		t.Error("nil db must not be available")
	}
	if _, ok := db.LookupID("anything", time.Time{}); ok {
		t.Error("nil db lookup must miss")
	}
	if db.HasNote("id") {
		t.Error("nil db must not report notes")
	}
	if err := db.Close(); err != nil {
		t.Errorf("nil db close: %v", err)
	}
}
