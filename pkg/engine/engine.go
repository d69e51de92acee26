package engine

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindElement when no element matches the selector.
var ErrNotFound = errors.New("engine: element not found")

// ErrClosed is returned by every operation issued after the browser has been closed.
var ErrClosed = errors.New("engine: browser closed")

// ContextID identifies a browsing context inside a Browser.
type ContextID string

// DefaultContext is the baseline context created at launch. It carries the
// session cookies and is never disposed before Close.
const DefaultContext ContextID = ""

// Launcher starts a browser engine.
type Launcher interface {
	Launch(ctx context.Context, cfg LaunchConfig) (Browser, error)
}

// Browser is a running automation engine instance.
type Browser interface {
	// NewContext creates an isolated (incognito) browsing context with the
	// same fingerprint configuration as the baseline context.
	NewContext(ctx context.Context) (ContextID, error)

	// DisposeContext tears down a context created with NewContext.
	DisposeContext(ctx context.Context, id ContextID) error

	// NewPage opens a blank page inside the given context.
	NewPage(ctx context.Context, id ContextID) (Page, error)

	// Cookies returns every cookie stored in the baseline context.
	Cookies(ctx context.Context) ([]Cookie, error)

	// SetCookies stores cookies in the baseline context.
	SetCookies(ctx context.Context, cookies []Cookie) error

	// Close shuts the engine down. Operations issued afterwards fail with ErrClosed.
	Close(ctx context.Context) error
}

// Finder looks up elements below a page or an element.
type Finder interface {
	// FindElement returns the first match or ErrNotFound.
	FindElement(ctx context.Context, selector string) (Element, error)

	// FindElements returns every match in document order. An empty result is not an error.
	FindElements(ctx context.Context, selector string) ([]Element, error)
}

// Page is a single tab.
type Page interface {
	Finder

	// Navigate loads url and returns the location the page settled on after
	// any server redirects.
	Navigate(ctx context.Context, url string) (string, error)

	// URL returns the current location.
	URL(ctx context.Context) (string, error)

	// Submit clicks el and waits for the navigation it triggers.
	Submit(ctx context.Context, el Element) error

	Close(ctx context.Context) error
}

// Element is a handle to a DOM node.
type Element interface {
	Finder

	// Text returns the rendered text of the node. ok is false when the node
	// has no text to offer.
	Text(ctx context.Context) (text string, ok bool, err error)

	// Attribute returns the named attribute. ok is false when it is absent.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)

	Click(ctx context.Context) error
	Type(ctx context.Context, text string) error
}

// Spawner runs a unit of work independently of the caller.
type Spawner interface {
	Spawn(fn func())
}

// GoSpawner runs work on a new goroutine.
type GoSpawner struct{}

// Spawn implements Spawner.
func (GoSpawner) Spawn(fn func()) {
	go fn()
}
