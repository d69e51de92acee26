package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/engine/enginetest"
)

const (
	testToken    = "tok-0123456789"
	testEmail    = "user@example.com"
	testPassword = "hunter2"
	testOTP      = "424242"
)

func newService() *enginetest.Service {
	return &enginetest.Service{
		Host:     "https://kagi.test",
		Token:    testToken,
		Email:    testEmail,
		Password: testPassword,
		Results:  enginetest.Results(5),
	}
}

func newController(t *testing.T, svc *enginetest.Service, cred Credential, opts ...Option) *Controller {
	t.Helper()

	opts = append([]Option{
		WithHost("https://kagi.test"),
		WithPolling(DefaultPollAttempts, time.Millisecond),
	}, opts...)

	c, err := New(context.Background(), svc, cred, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestNew_LaunchesWithStealthConfig(t *testing.T) {
	svc := newService()
	spawner := engine.GoSpawner{}
	newController(t, svc, Incognito{},
		WithHeadless(false),
		WithBrowserArgs("--lang=en-US"),
		WithNavigationTimeout(5*time.Second),
		WithSpawner(spawner),
	)

	cfg := svc.Stats().LaunchConfig
	assert.False(t, cfg.Headless)
	assert.Equal(t, engine.Viewport{Width: 1920, Height: 1080}, cfg.Viewport)
	assert.Contains(t, cfg.Args, "--disable-blink-features=AutomationControlled")
	assert.Equal(t, "--lang=en-US", cfg.Args[len(cfg.Args)-1])
	assert.Equal(t, []string{engine.NavigatorScript, engine.ScreenScript}, cfg.InitScripts)
	assert.Equal(t, 5*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, spawner, cfg.Spawner)
}

func TestNew_InvalidHost(t *testing.T) {
	_, err := New(context.Background(), newService(), Incognito{}, WithHost("kagi.test"))
	assert.ErrorIs(t, err, ErrURL)
}

func TestNew_NilCredential(t *testing.T) {
	_, err := New(context.Background(), newService(), nil)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestNew_CookieSeedingFailureIsFatal(t *testing.T) {
	svc := newService()
	svc.SetCookiesErr = errors.New("storage unavailable")

	_, err := New(context.Background(), svc, CookieJar{Cookies: []engine.Cookie{{Name: "a", Value: "b"}}},
		WithHost("https://kagi.test"))
	require.ErrorIs(t, err, ErrAuth)
	assert.ErrorContains(t, err, "storage unavailable")

	browsers := svc.Browsers()
	require.Len(t, browsers, 1)
	assert.True(t, browsers[0].Closed())
}

func TestSearch_Token(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Token{Value: testToken})

	results, ok, err := c.Search(context.Background(), "golang generics", 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 5)
	assert.Equal(t, Result{
		Title:   "Result 1",
		URL:     "https://example.com/1",
		Snippet: "Snippet 1",
	}, results[0])

	st := svc.Stats()
	assert.Equal(t, 1, st.SigninRedirects)
	assert.Equal(t, 1, st.TokenAttempts)
	assert.Equal(t, StateAuthenticated, c.State())
	assert.Equal(t, st.PagesOpened, st.PagesClosed)
}

func TestSearch_TokenMustLandOnHome(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		landing string
	}{
		{name: "lands on search", token: testToken, landing: "/search"},
		{name: "lands elsewhere", token: testToken, landing: "/welcome"},
		{name: "rejected token", token: "wrong", landing: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			svc.TokenLanding = tt.landing
			c := newController(t, svc, Token{Value: tt.token})

			results, ok, err := c.Search(context.Background(), "query", 5)
			require.ErrorIs(t, err, ErrAuth)
			assert.ErrorContains(t, err, "invalid token")
			assert.False(t, ok)
			assert.Nil(t, results)
			assert.Equal(t, StateUnauthenticated, c.State())
		})
	}
}

func TestSearch_CredentialsThatCannotSignIn(t *testing.T) {
	tests := []struct {
		name string
		cred Credential
	}{
		{name: "cookie jar", cred: CookieJar{Cookies: []engine.Cookie{{Name: "stale", Value: "x"}}}},
		{name: "empty cookie jar", cred: CookieJar{}},
		{name: "incognito", cred: Incognito{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			c := newController(t, svc, tt.cred)

			results, ok, err := c.Search(context.Background(), "query", 5)
			require.ErrorIs(t, err, ErrAuth)
			assert.ErrorContains(t, err, "invalid credentials")
			assert.False(t, ok)
			assert.Nil(t, results)

			st := svc.Stats()
			assert.Equal(t, 1, st.SigninRedirects)
			assert.Zero(t, st.Submissions)
			assert.Zero(t, st.TokenAttempts)
		})
	}
}

func TestSearch_Login(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Login{Email: testEmail, Password: testPassword})

	results, ok, err := c.Search(context.Background(), "query", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, results, 3)

	st := svc.Stats()
	assert.Equal(t, 1, st.Submissions)
	assert.Equal(t, []string{testEmail}, st.Typed["email"])
	assert.Equal(t, []string{testPassword}, st.Typed["password"])
}

func TestSearch_LoginSecondFactor(t *testing.T) {
	svc := newService()
	svc.OTP = testOTP
	c := newController(t, svc, Login{Email: testEmail, Password: testPassword, OTP: testOTP})

	results, ok, err := c.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, results, 5)

	st := svc.Stats()
	assert.Equal(t, 2, st.Submissions)
	assert.Equal(t, []string{testOTP}, st.Typed["code"])
}

func TestSearch_LoginSecondFactorRequired(t *testing.T) {
	svc := newService()
	svc.OTP = testOTP
	c := newController(t, svc, Login{Email: testEmail, Password: testPassword})

	_, ok, err := c.Search(context.Background(), "query", 5)
	require.ErrorIs(t, err, ErrAuth)
	assert.ErrorContains(t, err, "2FA code required")
	assert.False(t, ok)

	st := svc.Stats()
	assert.Equal(t, 1, st.Submissions, "no second submission without a code")
	assert.Empty(t, st.Typed["code"])
}

func TestSearch_LoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*enginetest.Service)
		cred      Login
		wantErr   error
		wantMsg   string
	}{
		{
			name:      "lands outside search",
			configure: func(s *enginetest.Service) { s.LoginLanding = "/" },
			cred:      Login{Email: testEmail, Password: testPassword},
			wantErr:   ErrAuth,
			wantMsg:   "login failed",
		},
		{
			name:      "wrong second factor",
			configure: func(s *enginetest.Service) { s.OTP = testOTP },
			cred:      Login{Email: testEmail, Password: testPassword, OTP: "000000"},
			wantErr:   ErrAuth,
			wantMsg:   "login failed",
		},
		{
			name:      "wrong password with code has no code field",
			configure: func(s *enginetest.Service) { s.OTP = testOTP },
			cred:      Login{Email: testEmail, Password: "nope", OTP: testOTP},
			wantErr:   ErrElementNotFound,
			wantMsg:   "input[name='code']",
		},
		{
			name:      "sign-in form missing",
			configure: func(s *enginetest.Service) { s.BrokenSignin = true },
			cred:      Login{Email: testEmail, Password: testPassword},
			wantErr:   ErrElementNotFound,
			wantMsg:   "#signInForm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			tt.configure(svc)
			c := newController(t, svc, tt.cred)

			_, ok, err := c.Search(context.Background(), "query", 5)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorContains(t, err, tt.wantMsg)
			assert.False(t, ok)
		})
	}
}

func TestSearch_UnexpectedDestination(t *testing.T) {
	svc := newService()
	svc.SearchLanding = "/maintenance"
	c := newController(t, svc, Token{Value: testToken})

	_, _, err := c.Search(context.Background(), "query", 5)
	require.ErrorIs(t, err, ErrBrowser)
	assert.ErrorContains(t, err, "/maintenance")
}

func TestSearch_NavigationFailure(t *testing.T) {
	svc := newService()
	svc.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	c := newController(t, svc, Token{Value: testToken})

	_, _, err := c.Search(context.Background(), "query", 5)
	require.ErrorIs(t, err, ErrBrowser)
	assert.ErrorContains(t, err, "ERR_NAME_NOT_RESOLVED")
}

func TestSearch_AuthRedirectLoopIsBounded(t *testing.T) {
	svc := newService()
	svc.RejectSessions = true
	c := newController(t, svc, Token{Value: testToken}, WithMaxAuthAttempts(2))

	_, ok, err := c.Search(context.Background(), "query", 5)
	require.ErrorIs(t, err, ErrAuth)
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.False(t, ok)

	st := svc.Stats()
	assert.Equal(t, 2, st.TokenAttempts)
	assert.Equal(t, 3, st.SigninRedirects)
}

func TestSearch_ReauthenticatesAfterInvalidation(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Token{Value: testToken})
	ctx := context.Background()

	_, _, err := c.Search(ctx, "first", 5)
	require.NoError(t, err)
	_, _, err = c.Search(ctx, "second", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Stats().TokenAttempts, "session reused")

	svc.Invalidate()

	results, ok, err := c.Search(ctx, "third", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 5)
	assert.Equal(t, 2, svc.Stats().TokenAttempts)
	assert.Equal(t, 2, svc.Stats().SigninRedirects)
}

func TestSearch_NoResults(t *testing.T) {
	svc := newService()
	svc.NeverRender = true
	c := newController(t, svc, Token{Value: testToken})

	results, ok, err := c.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, results)
}

func TestSearch_WaitsForRendering(t *testing.T) {
	svc := newService()
	svc.RenderDelay = DefaultPollAttempts - 1
	c := newController(t, svc, Token{Value: testToken})

	results, ok, err := c.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 5)
}

func TestSearch_SkipsIncompleteResults(t *testing.T) {
	svc := newService()
	svc.Results[2].Snippet = ""
	c := newController(t, svc, Token{Value: testToken})

	results, ok, err := c.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NotEqual(t, "Result 3", r.Title)
	}
}

func TestSearch_StopsAtLimit(t *testing.T) {
	svc := newService()
	svc.Results = enginetest.Results(10)
	c := newController(t, svc, Token{Value: testToken})
	ctx := context.Background()

	results, ok, err := c.Search(ctx, "query", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, enginetest.Results(10)[i].Title, r.Title)
	}

	doc := svc.LastResultsDocument()
	nodes, err := doc.FindElements(ctx, ".search-result")
	require.NoError(t, err)
	require.Len(t, nodes, 10)
	for i := 0; i < 3; i++ {
		assert.NotZero(t, doc.Touches(nodes[i]), "node %d read", i+1)
	}
	for i := 3; i < 10; i++ {
		assert.Zero(t, doc.Touches(nodes[i]), "node %d never queried", i+1)
	}
}

func TestSearch_CookiesReusedBySecondSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first := newController(t, svc, Login{Email: testEmail, Password: testPassword})
	_, ok, err := first.Search(ctx, "query", 5)
	require.NoError(t, err)
	require.True(t, ok)

	cookies, err := first.Cookies(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cookies)
	require.NoError(t, first.Close(ctx))

	redirects := svc.Stats().SigninRedirects

	second := newController(t, svc, CookieJar{Cookies: cookies})
	results, ok, err := second.Search(ctx, "query", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 5)
	assert.Equal(t, redirects, svc.Stats().SigninRedirects, "no sign-in redirect with seeded cookies")
}

func TestSearch_Override(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Incognito{})
	ctx := context.Background()

	results, ok, err := c.Search(ctx, "query", 5, WithOverride(Token{Value: testToken}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 5)

	st := svc.Stats()
	assert.Equal(t, 1, st.ContextsCreated)
	assert.Len(t, st.ContextsDisposed, 1)

	// The baseline credential is still incognito.
	assert.Equal(t, Incognito{}, c.Credential())
	_, _, err = c.Search(ctx, "query", 5)
	require.ErrorIs(t, err, ErrAuth)

	cookies, err := c.Cookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies, "override session stays out of the baseline context")
}

func TestSearch_OverrideLogin(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Incognito{})

	results, ok, err := c.Search(context.Background(), "query", 2,
		WithOverride(Login{Email: testEmail, Password: testPassword}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 2)
	assert.Len(t, svc.Stats().ContextsDisposed, 1)
}

func TestSearch_OverrideContextDisposedOnFailure(t *testing.T) {
	svc := newService()
	svc.DisposeErr = errors.New("target closed")
	c := newController(t, svc, Incognito{})

	_, _, err := c.Search(context.Background(), "query", 5, WithOverride(Token{Value: "wrong"}))
	require.ErrorIs(t, err, ErrAuth)
	assert.NotErrorIs(t, err, svc.DisposeErr, "teardown failures are not surfaced")
	assert.Len(t, svc.Stats().ContextsDisposed, 1)
}

func TestSearch_OverrideTeardownFailureIsLoggedOnly(t *testing.T) {
	svc := newService()
	svc.DisposeErr = errors.New("target closed")
	c := newController(t, svc, Incognito{})

	results, ok, err := c.Search(context.Background(), "query", 5, WithOverride(Token{Value: testToken}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, results, 5)
}

func TestSearch_OverrideRejectsPassiveCredentials(t *testing.T) {
	for _, cred := range []Credential{CookieJar{}, Incognito{}} {
		t.Run(string(cred.Kind()), func(t *testing.T) {
			svc := newService()
			c := newController(t, svc, Token{Value: testToken})

			_, _, err := c.Search(context.Background(), "query", 5, WithOverride(cred))
			require.ErrorIs(t, err, ErrAuth)
			assert.Zero(t, svc.Stats().Navigations)
			assert.Zero(t, svc.Stats().ContextsCreated)
		})
	}
}

func TestSearch_ZeroLimit(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Token{Value: testToken})

	results, ok, err := c.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, results)
}

func TestClose_Twice(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Token{Value: testToken})
	ctx := context.Background()

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))

	_, _, err := c.Search(ctx, "query", 5)
	assert.ErrorIs(t, err, ErrBrowser)
	assert.ErrorIs(t, err, engine.ErrClosed)

	_, err = c.Cookies(ctx)
	assert.ErrorIs(t, err, ErrBrowser)
}

func TestSearch_CanceledContext(t *testing.T) {
	svc := newService()
	c := newController(t, svc, Token{Value: testToken})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Search(ctx, "query", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
