package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/entrhq/kagisearch/pkg/search"
)

// errNoCredential is returned when the prompt is answered with nothing.
var errNoCredential = errors.New("no credentials provided: pass --token or --email, or set KAGI_TOKEN")

// prompter asks for credentials on the terminal. Secrets are read without
// echo when input is a terminal and as plain lines otherwise.
type prompter struct {
	in       *bufio.Reader
	out      io.Writer
	terminal int // file descriptor, -1 when input is not a terminal
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, terminal: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.terminal = int(f.Fd())
	}
	return p
}

// credential asks for a session token or an email address, then for the
// password and optional two-factor code of a login.
func (p *prompter) credential() (search.Credential, error) {
	answer, err := p.line("Kagi session token or email: ")
	if err != nil {
		return nil, err
	}
	if answer == "" {
		return nil, errNoCredential
	}
	if !strings.Contains(answer, "@") {
		return search.Token{Value: answer}, nil
	}

	password, err := p.secret("Password: ")
	if err != nil {
		return nil, err
	}
	otp, err := p.line("2FA code (leave empty if none): ")
	if err != nil {
		return nil, err
	}
	return search.Login{Email: answer, Password: password, OTP: otp}, nil
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	text, err := p.in.ReadString('\n')
	// A final line without newline still counts
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if p.terminal < 0 {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.terminal)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
