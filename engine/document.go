package engine

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed, static HTML page.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses r with the HTML5 parser.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// FindAll returns every element matching selector in document order.
func (d *Document) FindAll(selector, attr string) []Element {
	sel := d.doc.Find(selector)
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		el := Element{Text: s.Text()}
		if attr != "" {
			el.Attr, _ = s.Attr(attr)
		}
		out = append(out, el)
	})
	return out
}

// FindOne returns the first element matching selector.
func (d *Document) FindOne(selector string) (Element, error) {
	s := d.doc.Find(selector).First()
	if s.Length() == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	outer, err := goquery.OuterHtml(s)
	if err != nil {
		return Element{}, fmt.Errorf("render %s: %w", selector, err)
	}
	return Element{Text: s.Text(), HTML: outer}, nil
}
