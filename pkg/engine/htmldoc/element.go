package htmldoc

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/kagisearch/pkg/engine"
)

// ErrReadOnly is returned by interaction methods; a static document cannot be clicked or typed into.
var ErrReadOnly = errors.New("htmldoc: document is read-only")

// Element is a node of a Document.
type Element struct {
	doc *Document
	sel *goquery.Selection
}

// FindElement returns the first descendant matching selector.
func (e *Element) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	e.doc.touch(e.sel)
	return e.doc.find(ctx, e.sel, selector)
}

// FindElements returns all descendants matching selector.
func (e *Element) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	e.doc.touch(e.sel)
	return e.doc.findAll(ctx, e.sel, selector)
}

// Text returns the whitespace-trimmed text content. A node with only
// whitespace has no text.
func (e *Element) Text(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	e.doc.touch(e.sel)
	text := strings.TrimSpace(e.sel.Text())
	return text, text != "", nil
}

// Attribute returns the named attribute.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	e.doc.touch(e.sel)
	value, ok := e.sel.Attr(name)
	return value, ok, nil
}

// Click is not supported.
func (e *Element) Click(context.Context) error { return ErrReadOnly }

// Type is not supported.
func (e *Element) Type(context.Context, string) error { return ErrReadOnly }

// Name returns the name attribute, or the empty string.
func (e *Element) Name() string {
	return e.sel.AttrOr("name", "")
}

// Matches reports whether the element matches selector.
func (e *Element) Matches(selector string) bool {
	return e.sel.Is(selector)
}
