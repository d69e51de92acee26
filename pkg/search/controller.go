package search

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// State is the authentication state of a session as last observed.
type State int32

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Controller owns one browser session against the search service. It may
// serve many sequential Search calls but is not safe for concurrent ones.
type Controller struct {
	opts       options
	credential Credential
	browser    engine.Browser
	logger     *logging.Logger

	auth      authenticator
	poller    poller
	extractor extractor

	// authMu keeps at most one sign-in handshake in flight.
	authMu sync.Mutex
	state  atomic.Int32

	closeMu sync.Mutex
	closed  bool
}

// New launches a browser with the fingerprint-evasion configuration and
// returns a Controller bound to cred. A CookieJar credential is loaded into
// the session before any navigation.
func New(ctx context.Context, launcher engine.Launcher, cred Credential, opts ...Option) (*Controller, error) {
	if cred == nil {
		return nil, authError("no credential")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := searchURL(o.host, "q", ""); err != nil {
		return nil, err
	}

	logger := o.logger.Component("search")

	cfg := engine.StealthConfig(o.headless, o.browserArgs...)
	cfg.NavigationTimeout = o.navigationTimeout
	cfg.Spawner = o.spawner

	browser, err := launcher.Launch(ctx, cfg)
	if err != nil {
		return nil, engineError(err, "failed to launch browser")
	}
	logger.Debugf("browser launched (headless=%t, credential=%v)", o.headless, cred)

	c := &Controller{
		opts:       o,
		credential: cred,
		browser:    browser,
		logger:     logger,
		auth:       authenticator{host: o.host, logger: logger.Component("auth")},
		poller: poller{
			attempts: o.pollAttempts,
			interval: o.pollInterval,
			logger:   logger.Component("poller"),
		},
		extractor: extractor{logger: logger.Component("extract")},
	}

	if jar, ok := cred.(CookieJar); ok {
		if err := browser.SetCookies(ctx, jar.Cookies); err != nil {
			_ = browser.Close(ctx)
			return nil, &Error{Kind: KindAuth, Msg: "failed to load cookies", Err: err}
		}
		logger.Debugf("%d cookies loaded", len(jar.Cookies))
	}

	return c, nil
}

// Credential returns the baseline credential the session was created with.
func (c *Controller) Credential() Credential {
	return c.credential
}

// State returns the authentication state observed by the latest search.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Search runs query and returns up to limit results. ok is false when no
// result rendered within the polling budget, which is not an error.
func (c *Controller) Search(ctx context.Context, query string, limit int, opts ...SearchOption) (results []Result, ok bool, err error) {
	if c.isClosed() {
		return nil, false, browserError(engine.ErrClosed, "session closed")
	}

	var so searchOptions
	for _, opt := range opts {
		opt(&so)
	}

	cred := c.credential
	contextID := engine.DefaultContext
	if so.override != nil {
		switch so.override.(type) {
		case Token, Login:
		default:
			return nil, false, authError("override credential must be a token or login, got %s", so.override.Kind())
		}
		cred = so.override

		if contextID, err = c.browser.NewContext(ctx); err != nil {
			return nil, false, engineError(err, "failed to create incognito context")
		}
		defer c.disposeContext(contextID)
	}

	page, err := c.browser.NewPage(ctx, contextID)
	if err != nil {
		return nil, false, engineError(err, "failed to open page")
	}
	defer func() {
		if cerr := page.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Debugf("failed to close page: %v", cerr)
		}
	}()

	if err := c.reachResults(ctx, page, query, cred); err != nil {
		return nil, false, err
	}

	nodes, ok, err := c.poller.poll(ctx, page)
	if err != nil || !ok {
		return nil, false, err
	}
	results, err = c.extractor.extract(ctx, nodes, limit)
	if err != nil {
		return nil, false, err
	}

	c.logger.Infof("search %q returned %d results", query, len(results))
	return results, true, nil
}

// reachResults navigates to the results page, authenticating whenever the
// service redirects to sign-in. The number of sign-in rounds is capped so a
// session the service keeps invalidating ends in an error.
func (c *Controller) reachResults(ctx context.Context, page engine.Page, query string, cred Credential) error {
	target, err := searchURL(c.opts.host, "q", query)
	if err != nil {
		return err
	}

	for round := 0; ; round++ {
		location, err := page.Navigate(ctx, target)
		if err != nil {
			return engineError(err, "navigation to search failed")
		}
		path, err := pathOf(location)
		if err != nil {
			return err
		}

		switch path {
		case pathSearch:
			c.state.Store(int32(StateAuthenticated))
			return nil
		case pathSignin:
			c.logger.Debugf("sign in required")
			if round >= c.opts.maxAuthAttempts {
				return authError("still redirected to sign in after %d attempts", round)
			}
			if err := c.authenticate(ctx, page, cred); err != nil {
				return err
			}
		default:
			return browserError(nil, "failed to navigate to search page: landed on %s", path)
		}
	}
}

func (c *Controller) authenticate(ctx context.Context, page engine.Page, cred Credential) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	c.state.Store(int32(StateAuthenticating))
	var err error
	switch cred := cred.(type) {
	case Token:
		err = c.auth.token(ctx, page, cred)
	case Login:
		err = c.auth.login(ctx, page, cred)
	default:
		err = authError("invalid credentials")
	}
	if err != nil {
		c.state.Store(int32(StateUnauthenticated))
		c.logger.Warnf("authentication with %v failed: %v", cred, err)
	}
	return err
}

// disposeContext tears down a per-call context. Failures are logged only.
func (c *Controller) disposeContext(id engine.ContextID) {
	c.logger.Debugf("disposing browser context %s", id)
	if err := c.browser.DisposeContext(context.Background(), id); err != nil {
		c.logger.Warnf("failed to dispose browser context %s: %v", id, err)
	}
}

// Cookies returns the session's current cookies.
func (c *Controller) Cookies(ctx context.Context) ([]engine.Cookie, error) {
	if c.isClosed() {
		return nil, browserError(engine.ErrClosed, "session closed")
	}
	cookies, err := c.browser.Cookies(ctx)
	if err != nil {
		return nil, engineError(err, "failed to read cookies")
	}
	return cookies, nil
}

// Close shuts the browser down. Calling it again is a no-op.
func (c *Controller) Close(ctx context.Context) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.browser.Close(ctx); err != nil {
		return engineError(err, "failed to close browser")
	}
	c.logger.Debugf("browser closed")
	return nil
}

func (c *Controller) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// ExtractResults reads up to limit results from a page that has already
// rendered, such as a saved results document. ok is false when the page
// holds no result nodes.
func ExtractResults(ctx context.Context, page engine.Finder, limit int, logger *logging.Logger) (results []Result, ok bool, err error) {
	if logger == nil {
		logger = logging.Nop()
	}
	p := poller{attempts: 1, logger: logger}
	nodes, ok, err := p.poll(ctx, page)
	if err != nil || !ok {
		return nil, false, err
	}
	x := extractor{logger: logger}
	if results, err = x.extract(ctx, nodes, limit); err != nil {
		return nil, false, err
	}
	return results, true, nil
}
