package engine

import (
	"regexp"
	"strings"
)

// ChapterMarker is a named jump target in the stream.
type ChapterMarker struct {
	Title     string
	WordIndex int
}

const defaultChapterTitle = "Beginning"

// Heading detection is a heuristic: a heading keyword immediately
// followed by a numeral. It both over- and under-detects on real
// books; formats with structural chapters (EPUB) bypass it entirely.
var headingKeywords = map[string]struct{}{
	"chapter": {},
	"part":    {},
	"book":    {},
	"canto":   {},
	"section": {},
}

var (
	arabicNumeral = regexp.MustCompile(`^[0-9]+[.,:;!?]?$`)
	romanNumeral  = regexp.MustCompile(`^[IVXLCDM]+[.,:;!?]?$`)
)

// IndexChapters scans the token stream once for heading keyword +
// numeral pairs and returns a marker per match, titled from the
// matched tokens with the numeral consumed. When nothing matches it
// returns exactly one default marker at index 0, so the list is never
// empty even for an empty stream.
func IndexChapters(words []string) []ChapterMarker {
	var markers []ChapterMarker
	for i := 0; i+1 < len(words); i++ {
		key := strings.ToLower(strings.TrimRight(words[i], ".,:;!?"))
		if _, ok := headingKeywords[key]; !ok {
			continue
		}
		next := words[i+1]
		if !arabicNumeral.MatchString(next) && !romanNumeral.MatchString(next) {
			continue
		}
		markers = append(markers, ChapterMarker{
			Title:     words[i] + " " + strings.TrimRight(next, ".,:;!?"),
			WordIndex: i,
		})
		i++ // numeral consumed
	}
	if len(markers) == 0 {
		markers = []ChapterMarker{{Title: defaultChapterTitle, WordIndex: 0}}
	}
	return markers
}
