// Package apperr defines sentinel errors shared across the migration packages.
package apperr

import "errors"

var (
	// ErrNoteMalformed marks a source note folder that cannot be migrated
	// (no Markdown body file, or more than one).
	ErrNoteMalformed = errors.New("malformed note folder")
	// ErrNameSpaceExhausted marks a collision chain that exceeded the
	// configured suffix attempt cap.
	ErrNameSpaceExhausted = errors.New("name space exhausted")
)
