// Package engine defines the browser automation surface the search controller
// drives, independent of the engine behind it.
//
// # Backends
//
// Exactly one engine backs a running program:
//
//   - browser: the production backend, a Chromium instance driven through
//     Playwright and owned by a single background worker
//   - htmldoc: a read-only backend over a parsed HTML document, used to
//     extract results from saved pages
//   - enginetest: a scripted imitation of the search service for tests
//
// # Fingerprint evasion
//
// The search service fingerprints automated clients. StealthConfig returns
// the launch configuration every session uses: automation switches disabled,
// a fixed 1920x1080 viewport, and init scripts that spoof navigator
// properties, screen geometry and WebGL vendor strings.
//
// # Example Usage
//
//	browser, err := launcher.Launch(ctx, engine.StealthConfig(true))
//	page, err := browser.NewPage(ctx, engine.DefaultContext)
//	location, err := page.Navigate(ctx, "https://kagi.com/search?q=go")
//	results, err := page.FindElements(ctx, ".search-result")
package engine
