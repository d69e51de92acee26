package enginetest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/engine/htmldoc"
)

// Browser is a browser connected to a Service.
type Browser struct {
	service  *Service
	jars     map[engine.ContextID][]engine.Cookie
	contexts int
	closed   bool
}

// check must be called with service.mu held.
func (b *Browser) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.closed {
		return engine.ErrClosed
	}
	return nil
}

// NewContext implements engine.Browser.
func (b *Browser) NewContext(ctx context.Context) (engine.ContextID, error) {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return "", err
	}

	b.contexts++
	id := engine.ContextID(fmt.Sprintf("incognito-%d", b.contexts))
	b.jars[id] = nil
	s.stats.ContextsCreated++
	return id, nil
}

// DisposeContext implements engine.Browser.
func (b *Browser) DisposeContext(ctx context.Context, id engine.ContextID) error {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}
	if id == engine.DefaultContext {
		return fmt.Errorf("cannot dispose the default context")
	}
	if _, ok := b.jars[id]; !ok {
		return fmt.Errorf("unknown context %q", id)
	}

	delete(b.jars, id)
	s.stats.ContextsDisposed = append(s.stats.ContextsDisposed, id)
	return s.DisposeErr
}

// NewPage implements engine.Browser.
func (b *Browser) NewPage(ctx context.Context, id engine.ContextID) (engine.Page, error) {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	if _, ok := b.jars[id]; !ok {
		return nil, fmt.Errorf("unknown context %q", id)
	}

	doc, err := htmldoc.ParseString(blankPage)
	if err != nil {
		return nil, err
	}
	s.stats.PagesOpened++
	return &Page{
		browser:  b,
		context:  id,
		location: "about:blank",
		doc:      doc,
		typed:    make(map[string]string),
	}, nil
}

// Cookies implements engine.Browser.
func (b *Browser) Cookies(ctx context.Context) ([]engine.Cookie, error) {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	return append([]engine.Cookie(nil), b.jars[engine.DefaultContext]...), nil
}

// SetCookies implements engine.Browser.
func (b *Browser) SetCookies(ctx context.Context, cookies []engine.Cookie) error {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}
	if s.SetCookiesErr != nil {
		return s.SetCookiesErr
	}
	b.jars[engine.DefaultContext] = mergeCookies(b.jars[engine.DefaultContext], cookies)
	return nil
}

// Close implements engine.Browser. Closing twice is not an error.
func (b *Browser) Close(ctx context.Context) error {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (b *Browser) Closed() bool {
	s := b.service
	s.mu.Lock()
	defer s.mu.Unlock()
	return b.closed
}

// Browsers returns every browser launched against the service.
func (s *Service) Browsers() []*Browser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Browser(nil), s.browsers...)
}

// mergeCookies replaces cookies with the same name, domain and path.
func mergeCookies(jar, cookies []engine.Cookie) []engine.Cookie {
	out := append([]engine.Cookie(nil), jar...)
	for _, c := range cookies {
		replaced := false
		for i := range out {
			if out[i].Name == c.Name && out[i].Domain == c.Domain && out[i].Path == c.Path {
				out[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

// Page is a tab in a Browser.
type Page struct {
	browser  *Browser
	context  engine.ContextID
	location string
	doc      *htmldoc.Document
	closed   bool

	// results page rendering
	onResults bool
	lookups   int
	empty     *htmldoc.Document

	// sign-in form state
	secondFactor bool
	typed        map[string]string
}

func (p *Page) check(ctx context.Context) error {
	if err := p.browser.check(ctx); err != nil {
		return err
	}
	if p.closed {
		return fmt.Errorf("page closed")
	}
	return nil
}

// Navigate implements engine.Page.
func (p *Page) Navigate(ctx context.Context, target string) (string, error) {
	s := p.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return "", err
	}
	if s.NavigateErr != nil {
		return "", s.NavigateErr
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	s.stats.Navigations++
	query := u.Query()

	switch {
	case u.Path == "/search" && query.Has("token"):
		s.stats.TokenAttempts++
		if query.Get("token") != s.Token || s.Token == "" {
			return p.showSignin()
		}
		p.grant()
		return p.show(orDefault(s.TokenLanding, "/"), nil)

	case u.Path == "/search":
		if s.SearchLanding != "" {
			return p.show(s.SearchLanding, nil)
		}
		if !s.validSession(p.browser.jars[p.context]) {
			s.stats.SigninRedirects++
			return p.showSignin()
		}
		return p.show("/search", url.Values{"q": []string{query.Get("q")}})

	default:
		return p.show(u.Path, query)
	}
}

// showSignin must be called with service.mu held.
func (p *Page) showSignin() (string, error) {
	p.secondFactor = false
	p.typed = make(map[string]string)
	return p.show("/signin", nil)
}

// show loads the page for path. Must be called with service.mu held.
func (p *Page) show(path string, query url.Values) (string, error) {
	s := p.browser.service

	var markup string
	p.onResults = false
	switch path {
	case "/signin":
		switch {
		case s.BrokenSignin:
			markup = brokenSigninPage
		case p.secondFactor:
			markup = secondFactorPage
		default:
			markup = signinPage
		}
	case "/search":
		markup = resultsPage(s.Results)
		p.onResults = true
		p.lookups = 0
	case "/":
		markup = homePage
	default:
		markup = blankPage
	}

	doc, err := htmldoc.ParseString(markup)
	if err != nil {
		return "", err
	}
	p.doc = doc
	if p.onResults {
		s.lastDoc = doc
		if p.empty, err = htmldoc.ParseString(resultsPage(nil)); err != nil {
			return "", err
		}
	}
	p.location = s.location(path, query)
	return p.location, nil
}

// grant issues a session into the page's context. Must be called with service.mu held.
func (p *Page) grant() {
	s := p.browser.service
	p.browser.jars[p.context] = mergeCookies(p.browser.jars[p.context], []engine.Cookie{s.issueSession()})
}

// URL implements engine.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	s := p.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.location, nil
}

// current returns the document lookups should see. Must be called with service.mu held.
func (p *Page) current() *htmldoc.Document {
	s := p.browser.service
	if !p.onResults {
		return p.doc
	}
	p.lookups++
	if s.NeverRender || p.lookups <= s.RenderDelay {
		return p.empty
	}
	return p.doc
}

// FindElement implements engine.Page.
func (p *Page) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	s := p.browser.service
	s.mu.Lock()
	if err := p.check(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	doc := p.current()
	s.mu.Unlock()

	el, err := doc.FindElement(ctx, selector)
	if err != nil {
		return nil, err
	}
	return &element{Element: el.(*htmldoc.Element), page: p}, nil
}

// FindElements implements engine.Page.
func (p *Page) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	s := p.browser.service
	s.mu.Lock()
	if err := p.check(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	doc := p.current()
	s.mu.Unlock()

	found, err := doc.FindElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(found, p), nil
}

// Submit implements engine.Page. It evaluates the sign-in form with the
// values typed so far.
func (p *Page) Submit(ctx context.Context, el engine.Element) error {
	s := p.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return err
	}

	button, ok := el.(*element)
	if !ok || button.page != p || !button.Matches("button[type='submit']") {
		return fmt.Errorf("submit: not a submit button of this page")
	}
	s.stats.Submissions++

	typed := p.typed
	p.typed = make(map[string]string)

	if p.secondFactor {
		if typed["code"] != s.OTP {
			_, err := p.show("/signin", nil)
			return err
		}
		p.grant()
		_, err := p.show(orDefault(s.LoginLanding, "/search"), nil)
		return err
	}

	if s.Email == "" || typed["email"] != s.Email || typed["password"] != s.Password {
		_, err := p.show("/signin", nil)
		return err
	}
	if s.OTP != "" {
		p.secondFactor = true
		_, err := p.show("/signin", nil)
		return err
	}
	p.grant()
	_, err := p.show(orDefault(s.LoginLanding, "/search"), nil)
	return err
}

// Close implements engine.Page.
func (p *Page) Close(ctx context.Context) error {
	s := p.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	s.stats.PagesClosed++
	return nil
}

// element adds form interaction to a document element.
type element struct {
	*htmldoc.Element
	page *Page
}

func wrapAll(found []engine.Element, p *Page) []engine.Element {
	out := make([]engine.Element, len(found))
	for i, el := range found {
		out[i] = &element{Element: el.(*htmldoc.Element), page: p}
	}
	return out
}

// Unwrap returns the document element.
func (e *element) Unwrap() engine.Element {
	return e.Element
}

func (e *element) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	el, err := e.Element.FindElement(ctx, selector)
	if err != nil {
		return nil, err
	}
	return &element{Element: el.(*htmldoc.Element), page: e.page}, nil
}

func (e *element) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	found, err := e.Element.FindElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(found, e.page), nil
}

func (e *element) Click(ctx context.Context) error {
	s := e.page.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.page.check(ctx)
}

func (e *element) Type(ctx context.Context, text string) error {
	s := e.page.browser.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := e.page.check(ctx); err != nil {
		return err
	}
	name := e.Name()
	if name == "" {
		return fmt.Errorf("type: element has no name")
	}
	e.page.typed[name] += text
	s.stats.Typed[name] = append(s.stats.Typed[name], text)
	return nil
}
