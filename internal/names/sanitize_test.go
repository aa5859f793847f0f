package names

import "testing"

func TestSanitize_Basic(t *testing.T) {
	got := Sanitize("My Trip", 100)
	if got != "My-Trip" {
		t.Errorf("Sanitize = %q, want %q", got, "My-Trip")
	}
}

func TestSanitize_IllegalCharacters(t *testing.T) {
	cases := map[string]string{
		"what?!":          "what",
		`a/b\c`:           "a-b-c",
		`"quoted" 'name'`: "quoted-name",
		"col:on|pipe":     "colonpipe",
	}
	for in, want := range cases {
		if got := Sanitize(in, 100); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize_Accents(t *testing.T) {
	if got := Sanitize("Résumé été", 100); got != "Resume-ete" {
		t.Errorf("Sanitize = %q, want %q", got, "Resume-ete")
	}
}

func TestSanitize_NeverEmpty(t *testing.T) {
	for _, in := range []string{"", "???", "  ", "---", "..."} {
		if got := Sanitize(in, 100); got != Placeholder {
			t.Errorf("Sanitize(%q) = %q, want placeholder", in, got)
		}
	}
}

func TestSanitize_TruncatePreservesExtension(t *testing.T) {
	got := Sanitize("a-very-long-attachment-filename.jpg", 12)
	if len([]rune(got)) > 12 {
		t.Errorf("len = %d, want <= 12", len([]rune(got)))
	}
	if ext := got[len(got)-4:]; ext != ".jpg" {
		t.Errorf("extension lost: %q", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"My Trip",
		"Résumé été",
		"a/b?c!",
		"   spaced   out   ",
		"",
		"a-very-long-attachment-filename.jpg",
		"-leading-dash",
		"trailing.dot.",
	}
	for _, in := range inputs {
		once := Sanitize(in, 20)
		twice := Sanitize(once, 20)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
