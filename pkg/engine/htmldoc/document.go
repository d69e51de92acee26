// Package htmldoc implements the read side of the engine surface over a
// static HTML document parsed with goquery.
//
// It backs result extraction from saved pages, and it gives the scripted test
// service a real selector engine. Every lookup made through a Document is
// counted per node so callers can tell which nodes were touched.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/entrhq/kagisearch/pkg/engine"
)

// Document is a parsed HTML document.
type Document struct {
	doc *goquery.Document

	mu      sync.Mutex
	touches map[*html.Node]int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		doc:     doc,
		touches: make(map[*html.Node]int),
	}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FindElement returns the first element matching selector.
func (d *Document) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	return d.find(ctx, d.doc.Selection, selector)
}

// FindElements returns all elements matching selector in document order.
func (d *Document) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	return d.findAll(ctx, d.doc.Selection, selector)
}

// Touches reports how many operations have been made on el. Wrappers that
// expose Unwrap() engine.Element are looked through.
func (d *Document) Touches(el engine.Element) int {
	for {
		w, ok := el.(interface{ Unwrap() engine.Element })
		if !ok {
			break
		}
		el = w.Unwrap()
	}
	e, ok := el.(*Element)
	if !ok || e.sel.Length() == 0 {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touches[e.sel.Get(0)]
}

// Title returns the document title.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func (d *Document) touch(sel *goquery.Selection) {
	if sel.Length() == 0 {
		return
	}
	d.mu.Lock()
	d.touches[sel.Get(0)]++
	d.mu.Unlock()
}

func (d *Document) find(ctx context.Context, from *goquery.Selection, selector string) (engine.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match := from.Find(selector).First()
	if match.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotFound, selector)
	}
	return &Element{doc: d, sel: match}, nil
}

func (d *Document) findAll(ctx context.Context, from *goquery.Selection, selector string) ([]engine.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var elements []engine.Element
	from.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{doc: d, sel: s})
	})
	return elements, nil
}
