package enginetest

import (
	"html"
	"strconv"
	"strings"
)

// Result is a result the service renders. An empty field is left out of the
// markup entirely, the way a broken result node looks on the live site.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Results returns n well-formed results.
func Results(n int) []Result {
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{
			Title:   "Result " + strconv.Itoa(i+1),
			URL:     "https://example.com/" + strconv.Itoa(i+1),
			Snippet: "Snippet " + strconv.Itoa(i+1),
		}
	}
	return results
}

func resultsPage(results []Result) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Search</title></head><body><main><div class="results-box">`)
	for _, r := range results {
		b.WriteString(`<div class="search-result">`)
		if r.Title != "" {
			b.WriteString(`<h3><a class="__sri-title" href="` + html.EscapeString(r.URL) + `">` + html.EscapeString(r.Title) + `</a></h3>`)
		}
		if r.URL != "" {
			b.WriteString(`<div class="__sri-url-box"><a href="` + html.EscapeString(r.URL) + `">` + html.EscapeString(r.URL) + `</a></div>`)
		}
		if r.Snippet != "" {
			b.WriteString(`<div class="__sri-desc">` + html.EscapeString(r.Snippet) + `</div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></main></body></html>`)
	return b.String()
}

const signinPage = `<html><head><title>Sign in</title></head><body>
<form id="signInForm" method="post">
  <input type="email" name="email">
  <input type="password" name="password">
  <button type="submit">Sign in</button>
</form>
</body></html>`

const secondFactorPage = `<html><head><title>Two-factor authentication</title></head><body>
<form id="signInForm" method="post">
  <input type="text" name="code" autocomplete="one-time-code">
  <button type="submit">Verify</button>
</form>
</body></html>`

const brokenSigninPage = `<html><head><title>Sign in</title></head><body>
<div class="maintenance">Sign in is temporarily unavailable.</div>
</body></html>`

const homePage = `<html><head><title>Home</title></head><body>
<form action="/search"><input name="q"></form>
</body></html>`

const blankPage = `<html><head></head><body></body></html>`
