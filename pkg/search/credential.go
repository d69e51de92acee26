package search

import (
	"fmt"

	"github.com/entrhq/kagisearch/pkg/engine"
)

// CredentialKind names the authentication flow a Credential selects.
type CredentialKind string

const (
	CredentialToken     CredentialKind = "token"
	CredentialLogin     CredentialKind = "login"
	CredentialCookies   CredentialKind = "cookies"
	CredentialIncognito CredentialKind = "incognito"
)

// Credential describes how a session authenticates. It is one of Token,
// Login, CookieJar or Incognito.
type Credential interface {
	Kind() CredentialKind
	credential()
}

// Token authenticates with a session link token.
type Token struct {
	Value string
}

// Login authenticates through the sign-in form. OTP is the optional
// second-factor code; empty means none was supplied.
type Login struct {
	Email    string
	Password string
	OTP      string
}

// CookieJar seeds the session with previously exported cookies.
type CookieJar struct {
	Cookies []engine.Cookie
}

// Incognito carries no identity. A session started with it can only
// authenticate through a per-search override.
type Incognito struct{}

func (Token) Kind() CredentialKind     { return CredentialToken }
func (Login) Kind() CredentialKind     { return CredentialLogin }
func (CookieJar) Kind() CredentialKind { return CredentialCookies }
func (Incognito) Kind() CredentialKind { return CredentialIncognito }

func (Token) credential()     {}
func (Login) credential()     {}
func (CookieJar) credential() {}
func (Incognito) credential() {}

func (t Token) String() string {
	return fmt.Sprintf("token(%s)", redact(t.Value))
}

func (l Login) String() string {
	return fmt.Sprintf("login(%s, 2fa=%t)", l.Email, l.OTP != "")
}

func (c CookieJar) String() string {
	return fmt.Sprintf("cookies(%d)", len(c.Cookies))
}

func (Incognito) String() string {
	return "incognito"
}

// redact keeps the first four characters of a secret.
func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
