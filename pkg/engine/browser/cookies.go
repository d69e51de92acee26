package browser

import (
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/kagisearch/pkg/engine"
)

func fromPlaywrightCookies(cookies []playwright.Cookie) []engine.Cookie {
	out := make([]engine.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := engine.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = engine.SameSite(*c.SameSite)
		}
		out = append(out, cookie)
	}
	return out
}

func toPlaywrightCookies(cookies []engine.Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookie := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		// Non-positive expiry means a session cookie
		if c.Expires > 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		if sameSite := sameSiteAttribute(c.SameSite); sameSite != nil {
			cookie.SameSite = sameSite
		}
		out = append(out, cookie)
	}
	return out
}

func sameSiteAttribute(s engine.SameSite) *playwright.SameSiteAttribute {
	switch s {
	case engine.SameSiteStrict:
		return playwright.SameSiteAttributeStrict
	case engine.SameSiteLax:
		return playwright.SameSiteAttributeLax
	case engine.SameSiteNone:
		return playwright.SameSiteAttributeNone
	default:
		return nil
	}
}
