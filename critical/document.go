package critical

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document holds selector tokens of elements visible on first paint.
type Document struct {
	tokens map[string]bool
}

// ParseDocument reads HTML and collects tag names, classes and ids of the
// first n elements of the document body. Zero n means DefaultFoldElements.
func ParseDocument(r io.Reader, n int) (*Document, error) {
	if n <= 0 {
		n = DefaultFoldElements
	}
	doc := &Document{tokens: make(map[string]bool)}
	z := html.NewTokenizer(r)
	inHead, seen := false, 0
	for seen < n {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unable to parse document: %w", err)
			}
			return doc, nil
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "head" {
				inHead = false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.Data == "head":
				inHead = true
			case tok.Data == "body":
				inHead = false
				doc.add(tok)
			case inHead || headOnly[tok.Data]:
			default:
				doc.add(tok)
				seen++
			}
		}
	}
	return doc, nil
}

var headOnly = map[string]bool{
	"html":  true,
	"title": true,
	"meta":  true,
	"link":  true,
	"style": true,
	"base":  true,
}

func (d *Document) add(tok html.Token) {
	d.tokens[strings.ToLower(tok.Data)] = true
	for _, a := range tok.Attr {
		switch a.Key {
		case "class":
			for _, cl := range strings.Fields(a.Val) {
				d.tokens["."+cl] = true
			}
		case "id":
			if id := strings.TrimSpace(a.Val); id != "" {
				d.tokens["#"+id] = true
			}
		}
	}
}

// Has reports whether token was seen. Nil document has nothing.
func (d *Document) Has(token string) bool {
	return d != nil && d.tokens[token]
}

// Len returns number of distinct tokens.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.tokens)
}
