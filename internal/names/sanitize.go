// Package names maps raw note titles and attachment filenames to
// filesystem-safe, collision-free names.
package names

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder is returned when sanitization leaves nothing usable.
const Placeholder = "untitled"

var (
	whitespaceRe = regexp.MustCompile(`[\s]+`)
	illegalRe    = regexp.MustCompile("[<>:\"|?*!'`]+")

	// NFKD decomposition followed by removal of combining marks turns
	// accented characters into their plain equivalents.
	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize replaces accented characters by their non-accented equivalent
// and drops control characters. Used both on candidate names and on titles
// read from the Evernote database so the two sides compare equal.
func Normalize(text string) string {
	out, _, err := transform.String(stripMarks, text)
	if err != nil {
		out = text
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, out)
}

// Sanitize maps raw to a filesystem-safe name of at most maxLen runes.
// Path separators become dashes, whitespace runs become a single dash,
// characters illegal in common filesystems are stripped, and a trailing
// extension survives truncation. The result is never empty and the
// function is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string, maxLen int) string {
	s := Normalize(raw)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = illegalRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	if s == "" {
		return Placeholder
	}

	ext := filepath.Ext(s)
	base := strings.TrimSuffix(s, ext)
	if base == "" {
		// Dotfile-like input: treat the whole name as base.
		base, ext = s, ""
	}

	if runes := []rune(base + ext); len(runes) > maxLen {
		keep := maxLen - len([]rune(ext))
		if keep < 1 {
			keep = 1
		}
		base = strings.Trim(string([]rune(base)[:keep]), "-.")
		if base == "" {
			base = Placeholder
		}
	}
	return base + ext
}
