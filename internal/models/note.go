// Package models defines the domain types shared by the migration packages.
package models

import "time"

// Note represents one source note as it moves through a migration run.
// All fields are settled by the sanitize and attachment phases except Body,
// which the link resolver mutates once before the note is written.
type Note struct {
	// SourceDir is the note folder name under the notebook root.
	SourceDir string
	// Name is the final unique note name; the file at the notebook root is
	// Name plus the configured note extension.
	Name string
	// ID is the Evernote identifier, empty when unknown.
	ID    string
	Title string
	// Body is the full note content, frontmatter included.
	Body string
	// Size is the body size in bytes at reporting time, before link rewriting.
	Size        int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []string
	Attachments []Attachment
}

// Attachment represents one attachment reference of a note after name
// resolution. When several notes share byte-identical attachments they all
// carry the same Name and only the first occurrence caused a copy.
type Attachment struct {
	// SourcePath is the raw reference found in the note body.
	SourcePath string
	// Name is the stored file name inside the attachments folder.
	Name string
	Size int64
	// Fingerprint is the SHA-256 digest of the attachment content.
	Fingerprint string
	// Reused is true when the stored copy already existed (deduplicated).
	Reused bool
}
