package engine

// SameSite mirrors the cookie SameSite attribute.
type SameSite string

const (
	SameSiteStrict SameSite = "Strict"
	SameSiteLax    SameSite = "Lax"
	SameSiteNone   SameSite = "None"
)

// Cookie is a browser cookie. Callers treat it as opaque and pass it back to
// SetCookies unchanged; the JSON form is what cookie files contain.
type Cookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Expires  float64  `json:"expires"` // unix seconds, -1 for session cookies
	HTTPOnly bool     `json:"httpOnly"`
	Secure   bool     `json:"secure"`
	SameSite SameSite `json:"sameSite,omitempty"`
}
