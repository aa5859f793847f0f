// Package report serializes migration results to the CSV report and reads
// them back for move operations.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/michelcaradec/evernote-migration/internal/models"
)

// Column order of the report. One row per (note, attachment) pair, a single
// row for a note without attachments; attachment columns are then blank.
const (
	colNoteID = iota
	colNoteName
	colNoteTitle
	colNoteCreated
	colNoteUpdated
	colNoteSize
	colAttachmentName
	colAttachmentSize
	columnCount
)

const dateFormat = time.RFC3339

// RowsForNote flattens a note into its report rows. The row count is
// max(1, attachment count).
func RowsForNote(n *models.Note) [][]string {
	base := []string{
		n.ID,
		n.Name,
		n.Title,
		formatDate(n.CreatedAt),
		formatDate(n.UpdatedAt),
		strconv.Itoa(n.Size),
	}
	if len(n.Attachments) == 0 {
		return [][]string{append(base, "", "")}
	}
	rows := make([][]string, 0, len(n.Attachments))
	for _, a := range n.Attachments {
		row := append(append([]string{}, base...), a.Name, strconv.FormatInt(a.Size, 10))
		rows = append(rows, row)
	}
	return rows
}

// Write serializes notes to a fresh CSV report at path. A previous report
// is replaced, never appended to.
func Write(path string, notes []*models.Note) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, n := range notes {
		for _, row := range RowsForNote(n) {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("report: write row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

// Read loads a CSV report and regroups consecutive rows sharing a note name
// back into notes.
func Read(path string) ([]*models.Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = columnCount

	var (
		notes   []*models.Note
		current *models.Note
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("report: read %s: %w", path, err)
		}

		if current == nil || current.Name != record[colNoteName] {
			size, err := strconv.Atoi(record[colNoteSize])
			if err != nil {
				return nil, fmt.Errorf("report: note size %q: %w", record[colNoteSize], err)
			}
			current = &models.Note{
				ID:        record[colNoteID],
				Name:      record[colNoteName],
				Title:     record[colNoteTitle],
				Size:      size,
				CreatedAt: parseDate(record[colNoteCreated]),
				UpdatedAt: parseDate(record[colNoteUpdated]),
			}
			notes = append(notes, current)
		}

		if record[colAttachmentName] != "" {
			size, err := strconv.ParseInt(record[colAttachmentSize], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("report: attachment size %q: %w", record[colAttachmentSize], err)
			}
			current.Attachments = append(current.Attachments, models.Attachment{
				Name: record[colAttachmentName],
				Size: size,
			})
		}
	}
	return notes, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateFormat)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{dateFormat, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
