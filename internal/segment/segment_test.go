package segment

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple sentence",
			input:    "Hello world this is a test",
			expected: []string{"Hello", "world", "this", "is", "a", "test"},
		},
		{
			name:     "collapses whitespace",
			input:    "Hello    world\n\ttest",
			expected: []string{"Hello", "world", "test"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "punctuation stays attached",
			input:    "Hello, world! How are you?",
			expected: []string{"Hello,", "world!", "How", "are", "you?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Tokenize(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Tokenize() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("Tokenize()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestStripBoilerplate(t *testing.T) {
	t.Run("gutenberg markers", func(t *testing.T) {
		text := "junk header\n*** START OF THE PROJECT GUTENBERG EBOOK EXAMPLE ***\nthe real text\nmore text\n*** END OF THE PROJECT GUTENBERG EBOOK EXAMPLE ***\nlicense junk"
		got := StripBoilerplate(text)
		if strings.Contains(got, "junk") {
			t.Errorf("boilerplate survived: %q", got)
		}
		if !strings.Contains(got, "the real text") || !strings.Contains(got, "more text") {
			t.Errorf("body text lost: %q", got)
		}
	})

	t.Run("no markers passes through", func(t *testing.T) {
		text := "just a plain\nbook body"
		if got := StripBoilerplate(text); got != text {
			t.Errorf("got %q, want unchanged", got)
		}
	})

	t.Run("start without end keeps the tail", func(t *testing.T) {
		text := "junk\n*** START OF THE EBOOK ***\nbody"
		got := StripBoilerplate(text)
		if strings.Contains(got, "junk") || !strings.Contains(got, "body") {
			t.Errorf("got %q", got)
		}
	})
}

func TestSentenceStarts(t *testing.T) {
	words := Tokenize("One two. Three four! Five six? Seven")
	got := SentenceStarts(words)
	want := []int{0, 2, 4, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SentenceStarts = %v, want %v", got, want)
	}

	if got := PrevSentence(want, 5); got != 4 {
		t.Errorf("PrevSentence(5) = %d, want 4", got)
	}
	if got := PrevSentence(want, 0); got != 0 {
		t.Errorf("PrevSentence(0) = %d, want 0", got)
	}
	if got := NextSentence(want, 0); got != 2 {
		t.Errorf("NextSentence(0) = %d, want 2", got)
	}
	if got := NextSentence(want, 6); got != 6 {
		t.Errorf("NextSentence past the last start = %d, want 6", got)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		path := filepath.Join(tmpDir, "book.txt")
		os.WriteFile(path, []byte("Hello world this is a test."), 0644)

		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(doc.Words) != 6 {
			t.Errorf("words = %v, want 6 tokens", doc.Words)
		}
		if len(doc.Headings) != 0 {
			t.Errorf("plain text produced headings: %v", doc.Headings)
		}
	})

	t.Run("markdown headings", func(t *testing.T) {
		path := filepath.Join(tmpDir, "book.md")
		os.WriteFile(path, []byte("# Intro\nsome words here\n## Next Part\nmore words"), 0644)

		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(doc.Headings) != 2 {
			t.Fatalf("headings = %v, want 2", doc.Headings)
		}
		if doc.Headings[0].Title != "Intro" || doc.Headings[0].WordIndex != 0 {
			t.Errorf("first heading = %+v", doc.Headings[0])
		}
		if doc.Headings[1].Title != "Next Part" {
			t.Errorf("second heading = %+v", doc.Headings[1])
		}
		// Header tokens are part of the stream, so the second heading
		// points at its own "##" token position.
		if doc.Headings[1].WordIndex != 5 {
			t.Errorf("second heading index = %d, want 5", doc.Headings[1].WordIndex)
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		if _, err := Load(filepath.Join(tmpDir, "missing.txt")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestEPUBFormatRegistration(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestHrefKeys(t *testing.T) {
	got := hrefKeys("text/ch01.xhtml#start")
	want := []string{"text/ch01.xhtml#start", "text/ch01.xhtml", "ch01.xhtml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hrefKeys = %v, want %v", got, want)
	}
}
