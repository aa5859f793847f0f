package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/michelcaradec/evernote-migration/internal/models"
)

func sampleNotes() []*models.Note {
	return []*models.Note{
		{
			ID:        "abcd-1",
			Name:      "My-Trip",
			Title:     "My Trip",
			Size:      1200,
			CreatedAt: time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Attachments: []models.Attachment{
				{Name: "photo.jpg", Size: 500},
				{Name: "map.png", Size: 1234},
			},
		},
		{
			Name:  "Ideas",
			Title: "Ideas",
			Size:  42,
		},
	}
}

func TestRowsForNote_Count(t *testing.T) {
	notes := sampleNotes()
	if got := len(RowsForNote(notes[0])); got != 2 {
		t.Errorf("rows with 2 attachments = %d, want 2", got)
	}
	if got := len(RowsForNote(notes[1])); got != 1 {
		t.Errorf("rows without attachments = %d, want 1", got)
	}
}

func TestRowsForNote_BlankAttachmentColumns(t *testing.T) {
	rows := RowsForNote(sampleNotes()[1])
	row := rows[0]
	if row[colAttachmentName] != "" || row[colAttachmentSize] != "" {
		t.Errorf("attachment columns = %q/%q, want blank", row[colAttachmentName], row[colAttachmentSize])
	}
	if row[colNoteID] != "" {
		t.Errorf("note id = %q, want blank", row[colNoteID])
	}
}

func TestWriteRead_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := Write(path, sampleNotes()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	notes, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len = %d, want 2", len(notes))
	}

	trip := notes[0]
	if trip.ID != "abcd-1" || trip.Name != "My-Trip" || trip.Title != "My Trip" {
		t.Errorf("note = %+v", trip)
	}
	if len(trip.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(trip.Attachments))
	}
	if trip.Attachments[1].Name != "map.png" || trip.Attachments[1].Size != 1234 {
		t.Errorf("attachment = %+v", trip.Attachments[1])
	}
	if !trip.UpdatedAt.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("updated = %v", trip.UpdatedAt)
	}

	ideas := notes[1]
	if len(ideas.Attachments) != 0 {
		t.Errorf("expected no attachments, got %v", ideas.Attachments)
	}
	if !ideas.CreatedAt.IsZero() {
		t.Errorf("expected zero created date, got %v", ideas.CreatedAt)
	}
}

func TestWrite_ReplacesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := Write(path, sampleNotes()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, sampleNotes()[1:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	notes, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("len = %d, want 1 (report must not append)", len(notes))
	}
}
