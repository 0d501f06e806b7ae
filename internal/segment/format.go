package segment

import (
	"os"
	"path/filepath"
	"strings"
)

// Format is a file-format segmenter. Implementations register
// themselves at init; unknown extensions fall back to plain text.
type Format interface {
	Name() string
	Extensions() []string
	// Segment extracts and tokenizes the file's text, with headings
	// when the format carries structural chapters.
	Segment(filename string) (Document, error)
}

var registry []Format

// Register adds a format segmenter to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Load segments a file, dispatching on its extension. Files with no
// registered format are read as plain text.
func Load(filename string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Segment(filename)
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return Document{}, err
	}
	return FromText(string(data)), nil
}

// SupportedFormats returns registered format names with extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
