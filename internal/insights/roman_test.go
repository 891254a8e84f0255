package insights

import (
	"strings"
	"testing"
)

func TestRomanizeLatinPassThrough(t *testing.T) {
	in := "Today we cover photosynthesis."
	if got := Romanize(in); got != in {
		t.Fatalf("expected Latin input unchanged, got %q", got)
	}
}

func TestRomanizeCommonWords(t *testing.T) {
	got := Romanize("یہ کیا ہے")
	if !strings.Contains(got, "kya") {
		t.Fatalf("expected common word kya, got %q", got)
	}
	if !strings.Contains(got, "hai") {
		t.Fatalf("expected common word hai, got %q", got)
	}
}

func TestRomanizeCharacterMap(t *testing.T) {
	got := Romanize("کتاب")
	if got != "ktab" {
		t.Fatalf("expected ktab, got %q", got)
	}
}

func TestRomanizeNormalizesWhitespace(t *testing.T) {
	got := Romanize("  hello   world  ")
	if got != "hello world" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestRomanizeMixedScript(t *testing.T) {
	got := Romanize("chapter پانچ revision")
	if !strings.HasPrefix(got, "chapter ") || !strings.HasSuffix(got, " revision") {
		t.Fatalf("expected Latin words preserved around transliteration, got %q", got)
	}
	if strings.ContainsRune(got, 'پ') {
		t.Fatalf("expected Urdu characters transliterated, got %q", got)
	}
}

func TestRomanizeEmpty(t *testing.T) {
	if got := Romanize(""); got != "" {
		t.Fatalf("expected empty output for empty input, got %q", got)
	}
}
