package parser

import (
	"regexp"
	"sort"
	"strings"
)

// AttachmentRef is one local file reference inside a note body. Start and
// End delimit the link target so callers can rewrite it in place.
type AttachmentRef struct {
	Path  string
	Start int
	End   int
}

// NoteLinkRef is one Evernote note-to-note marker. Start and End delimit
// the URL part of the Markdown link.
type NoteLinkRef struct {
	Label string
	ID    string
	Start int
	End   int
}

var (
	// Markdown links and images, target captured without an optional title.
	attachmentRe = regexp.MustCompile(`!?\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

	// Evernote in-app and web note links; groups: label, url, note id.
	noteLinkRes = []*regexp.Regexp{
		regexp.MustCompile(`\[([^\]]*)\]\((evernote:///view/[^/)]+/[^/)]+/([0-9a-fA-F-]{8,})/[^)]*)\)`),
		regexp.MustCompile(`\[([^\]]*)\]\((https://www\.evernote\.com/shard/[^/)]+/nl/[^/)]+/([0-9a-fA-F-]{8,})[^)]*)\)`),
	}
)

// AttachmentRefs returns every local attachment reference in content, in
// order of appearance. External URLs, Evernote markers, anchors, and
// absolute paths are not attachments.
func AttachmentRefs(content string) []AttachmentRef {
	matches := attachmentRe.FindAllStringSubmatchIndex(content, -1)
	var out []AttachmentRef
	for _, m := range matches {
		start, end := m[2], m[3]
		target := content[start:end]
		if !isLocalPath(target) {
			continue
		}
		out = append(out, AttachmentRef{Path: target, Start: start, End: end})
	}
	return out
}

func isLocalPath(target string) bool {
	if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "/") {
		return false
	}
	if strings.Contains(target, "://") {
		return false
	}
	for _, scheme := range []string{"evernote:", "mailto:", "http:", "https:"} {
		if strings.HasPrefix(target, scheme) {
			return false
		}
	}
	return true
}

// NoteLinks returns every Evernote note marker in content, in order of
// appearance.
func NoteLinks(content string) []NoteLinkRef {
	var out []NoteLinkRef
	for _, re := range noteLinkRes {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			out = append(out, NoteLinkRef{
				Label: content[m[2]:m[3]],
				ID:    content[m[6]:m[7]],
				Start: m[4],
				End:   m[5],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// StandardizeTags rewrites inline #tag occurrences of the given tags to
// their standard form: lower case, dashes and underscores stripped.
func StandardizeTags(content string, tags []string) string {
	for _, tag := range tags {
		std := standardizeTag(tag)
		if std == tag || std == "" {
			continue
		}
		content = strings.ReplaceAll(content, "#"+tag, "#"+std)
	}
	return content
}

func standardizeTag(tag string) string {
	tag = strings.ReplaceAll(tag, "-", "")
	tag = strings.ReplaceAll(tag, "_", "")
	return strings.ToLower(tag)
}
