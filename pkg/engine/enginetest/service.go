// Package enginetest provides a scripted imitation of the search service
// behind the engine interfaces, for testing code that drives a browser.
//
// A Service answers navigations the way the live site does: unauthenticated
// searches redirect to /signin, session links and the sign-in form issue a
// session cookie, and authenticated searches render a results page. Pages are
// real HTML documents queried with CSS selectors, so selector mistakes show
// up in tests.
package enginetest

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/engine/htmldoc"
)

// SessionCookie is the name of the cookie that carries an authenticated session.
const SessionCookie = "kagi_session"

// Service is a scripted search service. Configure the exported fields before
// launching a browser against it.
type Service struct {
	// Host is the service origin. Default: https://kagi.test
	Host string

	// Token is the only session link token the service accepts
	Token string

	// Email, Password and OTP are the only login the service accepts. An
	// empty OTP means the account has no second factor.
	Email    string
	Password string
	OTP      string

	// TokenLanding is where an accepted token redirects. Default: /
	TokenLanding string

	// LoginLanding is where a completed login redirects. Default: /search
	LoginLanding string

	// SearchLanding, when set, is where every search lands regardless of session
	SearchLanding string

	// Results is what an authenticated search renders
	Results []Result

	// RenderDelay is how many results-page lookups see an empty container
	// before results appear. NeverRender keeps the container empty.
	RenderDelay int
	NeverRender bool

	// BrokenSignin serves a sign-in page without the form
	BrokenSignin bool

	// RejectSessions makes every search redirect to sign-in even after a
	// successful handshake
	RejectSessions bool

	// Errors injected into browser operations
	SetCookiesErr error
	DisposeErr    error
	NavigateErr   error

	mu       sync.Mutex
	sessions map[string]bool
	issued   int
	stats    Stats
	lastDoc  *htmldoc.Document
	browsers []*Browser
}

// Stats counts what the service has seen.
type Stats struct {
	Launches         int
	Navigations      int
	SigninRedirects  int
	TokenAttempts    int
	Submissions      int
	ContextsCreated  int
	ContextsDisposed []engine.ContextID
	PagesOpened      int
	PagesClosed      int
	Typed            map[string][]string
	LaunchConfig     engine.LaunchConfig
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.ContextsDisposed = append([]engine.ContextID(nil), s.stats.ContextsDisposed...)
	st.Typed = make(map[string][]string, len(s.stats.Typed))
	for k, v := range s.stats.Typed {
		st.Typed[k] = append([]string(nil), v...)
	}
	return st
}

// LastResultsDocument returns the document of the most recently rendered results page.
func (s *Service) LastResultsDocument() *htmldoc.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDoc
}

// Invalidate revokes every session the service has issued, as the live
// service does when it expires sessions server-side.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]bool)
}

// Launch implements engine.Launcher.
func (s *Service) Launch(ctx context.Context, cfg engine.LaunchConfig) (engine.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Launches++
	s.stats.LaunchConfig = cfg
	if s.sessions == nil {
		s.sessions = make(map[string]bool)
	}
	if s.stats.Typed == nil {
		s.stats.Typed = make(map[string][]string)
	}

	b := &Browser{
		service: s,
		jars:    map[engine.ContextID][]engine.Cookie{engine.DefaultContext: nil},
	}
	s.browsers = append(s.browsers, b)
	return b, nil
}

func (s *Service) host() string {
	if s.Host == "" {
		return "https://kagi.test"
	}
	return s.Host
}

func (s *Service) location(path string, query url.Values) string {
	u, err := url.Parse(s.host())
	if err != nil {
		panic(fmt.Sprintf("enginetest: invalid host %q", s.Host))
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (s *Service) domain() string {
	u, err := url.Parse(s.host())
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// issueSession must be called with s.mu held.
func (s *Service) issueSession() engine.Cookie {
	s.issued++
	value := fmt.Sprintf("session-%d", s.issued)
	s.sessions[value] = true
	return engine.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Domain:   s.domain(),
		Path:     "/",
		Expires:  -1,
		HTTPOnly: true,
		Secure:   true,
		SameSite: engine.SameSiteLax,
	}
}

// validSession must be called with s.mu held.
func (s *Service) validSession(jar []engine.Cookie) bool {
	if s.RejectSessions {
		return false
	}
	for _, c := range jar {
		if c.Name == SessionCookie && s.sessions[c.Value] {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
