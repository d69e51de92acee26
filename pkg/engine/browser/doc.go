// Package browser is the production engine backend: Chromium driven through
// Playwright.
//
// # Architecture
//
// A Launcher installs the Playwright driver on first use and starts one
// driver and one Chromium per launch. The resulting Session owns every
// driver handle on a single worker goroutine, started through the launch
// configuration's Spawner. Exported methods queue a command for the worker
// and wait for its reply or for the caller's context, so a slow page never
// blocks a caller that has given up.
//
// # Contexts
//
// Each session starts with a baseline browser context that holds the
// session cookies. NewContext creates further isolated contexts with the
// same viewport, timeouts and init scripts; they share nothing with the
// baseline and are closed by DisposeContext.
//
// # Example Usage
//
//	launcher := browser.NewLauncher(browser.WithLogger(logger))
//	b, err := launcher.Launch(ctx, engine.StealthConfig(true))
//	if err != nil {
//	    return err
//	}
//	defer b.Close(ctx)
//
//	page, err := b.NewPage(ctx, engine.DefaultContext)
//	location, err := page.Navigate(ctx, "https://kagi.com/search?q=go")
package browser
