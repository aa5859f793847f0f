// Package parser extracts frontmatter metadata, attachment references, and
// Evernote note-link markers from Markdown content.
package parser

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta holds the metadata extracted from a note body.
type Meta struct {
	Frontmatter map[string]interface{}
	Title       string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	createdKeys = []string{"created", "created-at", "date"}
	updatedKeys = []string{"updated", "updated-at", "lastmod"}
)

// Parse extracts frontmatter metadata from raw Markdown bytes. The body is
// never modified here; callers keep the original content for rewriting.
func Parse(data []byte) (*Meta, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Meta{
		Frontmatter: fm,
		Title:       deriveTitle(fm, body),
		Tags:        extractTags(fm),
		CreatedAt:   extractDate(fm, createdKeys),
		UpdatedAt:   extractDate(fm, updatedKeys),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: fall back to treating everything as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// extractTags collects the frontmatter "tags" list in declaration order.
func extractTags(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	var out []string
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// extractDate returns the first parseable date among the given frontmatter
// keys. yaml.v3 already decodes canonical timestamps into time.Time.
func extractDate(fm map[string]interface{}, keys []string) time.Time {
	for _, key := range keys {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case time.Time:
			return v
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}
