package segment

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBFormat segments EPUB files: text from the spine documents,
// headings from the NCX navigation map.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

func (f *EPUBFormat) Segment(filename string) (Document, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return Document{}, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return Document{}, fmt.Errorf("epub has no rootfiles")
	}
	book := rc.Rootfiles[0]
	titles := ncxTitlesByHref(filename, book)

	var doc Document
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		words := Tokenize(htmlText(string(data)))
		if len(words) == 0 {
			continue
		}

		title := fmt.Sprintf("Section %d", i+1)
		if href := ref.Item.HREF; href != "" {
			if t, ok := titles[href]; ok {
				title = t
			} else if t, ok := titles[path.Base(href)]; ok {
				title = t
			}
		}
		doc.Headings = append(doc.Headings, Heading{
			Title:     title,
			WordIndex: len(doc.Words),
		})
		doc.Words = append(doc.Words, words...)
	}
	return doc, nil
}

// NCX navigation map, the chapter index inside an EPUB.
type ncx struct {
	NavMap struct {
		NavPoints []navPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type navPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

// ncxTitlesByHref maps spine hrefs to their NCX titles. Best effort:
// an EPUB without a usable NCX just gets numbered sections.
func ncxTitlesByHref(filename string, book *epub.Rootfile) map[string]string {
	result := make(map[string]string)

	data, err := readNCX(filename, book)
	if err != nil {
		return result
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return result
	}

	var walk func(points []navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			title := strings.TrimSpace(np.Label.Text)
			for _, key := range hrefKeys(np.Content.Src) {
				if _, exists := result[key]; !exists {
					result[key] = title
				}
			}
			walk(np.Children)
		}
	}
	walk(toc.NavMap.NavPoints)
	return result
}

// hrefKeys returns the lookup variants for an NCX href: as written,
// without its fragment, and the bare file name.
func hrefKeys(href string) []string {
	keys := []string{href}
	base := href
	if i := strings.Index(base, "#"); i != -1 {
		base = base[:i]
		keys = append(keys, base)
	}
	if b := path.Base(base); b != base {
		keys = append(keys, b)
	}
	return keys
}

// readNCX locates and reads the NCX document inside the archive, first
// via the manifest media type, then by extension as a fallback.
func readNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}
	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX in epub")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("NCX %s not found in archive", ncxPath)
}

// htmlText flattens an XHTML document to its visible text.
func htmlText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out.WriteString(t)
				out.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out.String()
}
