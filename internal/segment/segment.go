// Package segment turns raw book text into the ordered word stream the
// reading engine consumes: boilerplate stripping, tokenization, and
// heading detection for formats that carry structural chapters.
package segment

import (
	"strings"
)

// Heading is a named chapter boundary found during segmentation, as a
// word index into the tokenized stream.
type Heading struct {
	Title     string
	WordIndex int
}

// Document is the segmenter's output: the immutable word stream plus
// whatever headings the source format could provide. Headings may be
// empty; the engine falls back to its token heuristic then.
type Document struct {
	Words    []string
	Headings []Heading
}

// Tokenize splits text into word tokens on whitespace. Punctuation
// stays attached to its word.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// FromText segments already-loaded plain text.
func FromText(text string) Document {
	return Document{Words: Tokenize(StripBoilerplate(text))}
}

// Project Gutenberg wraps every book in license boilerplate between
// marker lines. Everything outside the markers is noise to a reader.
const (
	gutenbergStart = "*** START OF"
	gutenbergEnd   = "*** END OF"
)

// StripBoilerplate removes Project Gutenberg header/footer blocks when
// their marker lines are present. Text without markers passes through
// untouched.
func StripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	start, end := -1, len(lines)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start < 0 && strings.HasPrefix(trimmed, gutenbergStart) {
			start = i + 1
			continue
		}
		if start >= 0 && strings.HasPrefix(trimmed, gutenbergEnd) {
			end = i
			break
		}
	}
	if start < 0 {
		return text
	}
	return strings.Join(lines[start:end], "\n")
}

// SentenceStarts returns the word indices that begin sentences, for
// sentence-level jump navigation. Index 0 is always a start.
func SentenceStarts(words []string) []int {
	starts := []int{0}
	for i, word := range words {
		if len(word) == 0 {
			continue
		}
		switch word[len(word)-1] {
		case '.', '!', '?':
			if i+1 < len(words) {
				starts = append(starts, i+1)
			}
		}
	}
	return starts
}

// PrevSentence returns the start of the sentence before index.
func PrevSentence(starts []int, index int) int {
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] < index {
			return starts[i]
		}
	}
	return 0
}

// NextSentence returns the start of the sentence after index, or index
// itself when there is none.
func NextSentence(starts []int, index int) int {
	for _, s := range starts {
		if s > index {
			return s
		}
	}
	return index
}
