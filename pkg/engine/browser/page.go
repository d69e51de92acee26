package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/kagisearch/pkg/engine"
)

// Page is a tab in a Session. It implements engine.Page.
type Page struct {
	session *Session
	page    playwright.Page
}

// Navigate implements engine.Page.
func (p *Page) Navigate(ctx context.Context, url string) (string, error) {
	return call(ctx, p.session, func() (string, error) {
		if _, err := p.page.Goto(url); err != nil {
			return "", fmt.Errorf("navigation failed: %w", err)
		}
		return p.page.URL(), nil
	})
}

// URL implements engine.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	return call(ctx, p.session, func() (string, error) {
		return p.page.URL(), nil
	})
}

// FindElement implements engine.Page.
func (p *Page) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	return call(ctx, p.session, func() (engine.Element, error) {
		handle, err := p.page.QuerySelector(selector)
		return p.session.element(handle, selector, err)
	})
}

// FindElements implements engine.Page.
func (p *Page) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	return call(ctx, p.session, func() ([]engine.Element, error) {
		handles, err := p.page.QuerySelectorAll(selector)
		return p.session.elements(handles, selector, err)
	})
}

// Submit clicks el and waits for the navigation it starts, so the next URL
// read sees the destination rather than the form.
func (p *Page) Submit(ctx context.Context, el engine.Element) error {
	e, ok := el.(*Element)
	if !ok || e.session != p.session {
		return fmt.Errorf("submit: element does not belong to this session")
	}
	return p.session.do(ctx, func() error {
		_, err := p.page.ExpectNavigation(func() error {
			return e.handle.Click()
		})
		if err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		return nil
	})
}

// Close implements engine.Page.
func (p *Page) Close(ctx context.Context) error {
	return p.session.do(ctx, func() error {
		if p.page.IsClosed() {
			return nil
		}
		return p.page.Close()
	})
}

// Element is a handle to a node in a Page. It implements engine.Element.
type Element struct {
	session *Session
	handle  playwright.ElementHandle
}

// element wraps a query result. Runs on the worker.
func (s *Session) element(handle playwright.ElementHandle, selector string, err error) (engine.Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotFound, selector)
	}
	return &Element{session: s, handle: handle}, nil
}

// elements wraps a query-all result. Runs on the worker.
func (s *Session) elements(handles []playwright.ElementHandle, selector string, err error) ([]engine.Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	out := make([]engine.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Element{session: s, handle: h})
	}
	return out, nil
}

// FindElement implements engine.Element.
func (e *Element) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	return call(ctx, e.session, func() (engine.Element, error) {
		handle, err := e.handle.QuerySelector(selector)
		return e.session.element(handle, selector, err)
	})
}

// FindElements implements engine.Element.
func (e *Element) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	return call(ctx, e.session, func() ([]engine.Element, error) {
		handles, err := e.handle.QuerySelectorAll(selector)
		return e.session.elements(handles, selector, err)
	})
}

// Text returns the rendered text with surrounding whitespace removed.
func (e *Element) Text(ctx context.Context) (string, bool, error) {
	text, err := call(ctx, e.session, func() (string, error) {
		return e.handle.InnerText()
	})
	if err != nil {
		return "", false, err
	}
	text = strings.TrimSpace(text)
	return text, text != "", nil
}

// Attribute implements engine.Element. The driver reports a missing
// attribute as empty, so an empty value counts as absent.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	value, err := call(ctx, e.session, func() (string, error) {
		return e.handle.GetAttribute(name)
	})
	if err != nil {
		return "", false, err
	}
	return value, value != "", nil
}

// Click implements engine.Element.
func (e *Element) Click(ctx context.Context) error {
	return e.session.do(ctx, func() error {
		return e.handle.Click()
	})
}

// Type implements engine.Element.
func (e *Element) Type(ctx context.Context, text string) error {
	return e.session.do(ctx, func() error {
		return e.handle.Type(text)
	})
}
