package segment

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat segments Markdown files, using ATX headers as
// chapter boundaries.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

var headerLine = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

func (f *MarkdownFormat) Segment(filename string) (Document, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Document{}, err
	}
	defer file.Close()

	var doc Document
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headerLine.FindStringSubmatch(line); match != nil {
			doc.Headings = append(doc.Headings, Heading{
				Title:     strings.TrimSpace(match[1]),
				WordIndex: len(doc.Words),
			})
		}
		doc.Words = append(doc.Words, Tokenize(line)...)
	}
	return doc, scanner.Err()
}
