package links

import (
	"strings"
	"testing"

	"github.com/michelcaradec/evernote-migration/internal/evernote"
	"github.com/michelcaradec/evernote-migration/internal/models"
	"github.com/michelcaradec/evernote-migration/internal/testutil"
)

func openDB(t *testing.T, path string) *evernote.DB {
	t.Helper()
	db, err := evernote.Open(path, testutil.Logger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func marker(label, id string) string {
	return "[" + label + "](evernote:///view/123/s12/" + id + "/" + id + "/)"
}

func TestResolve_ForwardLinkAndBacklink(t *testing.T) {
	a := &models.Note{Name: "Note-A", ID: "aaaa1111-0001", Body: "see " + marker("Note B", "bbbb2222-0002")}
	b := &models.Note{Name: "Note-B", ID: "bbbb2222-0002", Body: "# B\n"}
	notes := []*models.Note{a, b}

	stats := NewResolver(nil, ".md", testutil.Logger()).Resolve(notes)

	if stats.Resolved != 1 {
		t.Errorf("resolved = %d, want 1", stats.Resolved)
	}
	if !strings.Contains(a.Body, "[Note B](./Note-B.md)") {
		t.Errorf("forward link not rewritten: %q", a.Body)
	}
	if got := strings.Count(b.Body, "- [Note-A](./Note-A.md)"); got != 1 {
		t.Errorf("backlink count = %d, want 1 (%q)", got, b.Body)
	}
	if !strings.Contains(b.Body, "## Backlinks") {
		t.Errorf("backlink section missing: %q", b.Body)
	}
	if stats.Backlinks != 1 {
		t.Errorf("backlinks = %d, want 1", stats.Backlinks)
	}
}

func TestResolve_DuplicateForwardLinksOneBacklink(t *testing.T) {
	a := &models.Note{Name: "A", ID: "aaaa1111-0001",
		Body: marker("B", "bbbb2222-0002") + "\n" + marker("B again", "bbbb2222-0002")}
	b := &models.Note{Name: "B", ID: "bbbb2222-0002", Body: "body"}

	stats := NewResolver(nil, ".md", testutil.Logger()).Resolve([]*models.Note{a, b})

	if stats.Resolved != 2 {
		t.Errorf("resolved = %d, want 2", stats.Resolved)
	}
	if got := strings.Count(b.Body, "- [A](./A.md)"); got != 1 {
		t.Errorf("backlink entries = %d, want duplicates suppressed", got)
	}
}

func TestResolve_NoSelfBacklink(t *testing.T) {
	a := &models.Note{Name: "A", ID: "aaaa1111-0001", Body: marker("me", "aaaa1111-0001")}

	NewResolver(nil, ".md", testutil.Logger()).Resolve([]*models.Note{a})

	if strings.Contains(a.Body, "## Backlinks") {
		t.Errorf("self backlink created: %q", a.Body)
	}
	if !strings.Contains(a.Body, "(./A.md)") {
		t.Errorf("self link not rewritten: %q", a.Body)
	}
}

func TestResolve_UnknownTargetLeftUntouched(t *testing.T) {
	body := "see " + marker("lost", "ffff0000-9999")
	a := &models.Note{Name: "A", ID: "aaaa1111-0001", Body: body}

	stats := NewResolver(nil, ".md", testutil.Logger()).Resolve([]*models.Note{a})

	if a.Body != body {
		t.Errorf("body mutated: %q", a.Body)
	}
	if stats.Unresolved[ReasonUnknownTarget] != 1 {
		t.Errorf("unresolved = %v, want one unknown-target", stats.Unresolved)
	}
}

func TestResolve_OtherNotebookReason(t *testing.T) {
	// The target exists in the Evernote database but was not migrated in
	// this run, so the marker stays and the miss is classified.
	path := testutil.TestEvernoteDB(t, testutil.DBNote{ID: "cccc3333-0003", Label: "Elsewhere", CreatedMs: 0})
	db := openDB(t, path)

	a := &models.Note{Name: "A", ID: "aaaa1111-0001", Body: marker("other", "cccc3333-0003")}
	stats := NewResolver(db, ".md", testutil.Logger()).Resolve([]*models.Note{a})

	if stats.Unresolved[ReasonOtherNotebook] != 1 {
		t.Errorf("unresolved = %v, want one other-notebook", stats.Unresolved)
	}
}

func TestIndex_SkipsNotesWithoutID(t *testing.T) {
	ix := NewIndex([]*models.Note{{Name: "NoID"}, {Name: "WithID", ID: "aaaa1111-0001"}})
	if _, ok := ix.Lookup(""); ok {
		t.Error("empty id must not resolve")
	}
	if name, ok := ix.Lookup("aaaa1111-0001"); !ok || name != "WithID" {
		t.Errorf("got (%q, %v)", name, ok)
	}
}
