package search

import (
	"context"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Sign-in form selectors.
const (
	selectorSigninForm    = "#signInForm"
	selectorEmailInput    = "input[name='email']"
	selectorPasswordInput = "input[name='password']"
	selectorCodeInput     = "input[name='code']"
	selectorSubmitButton  = "button[type='submit']"
)

// authenticator runs the interactive part of one credential flow on a page
// that has just been redirected to the sign-in path. Handlers never retry;
// the controller's redirect loop decides whether to try again.
type authenticator struct {
	host   string
	logger *logging.Logger
}

// token opens the session link. The service answers a valid token by
// redirecting to its home page; any other destination, /search included,
// means the token was refused.
func (a *authenticator) token(ctx context.Context, page engine.Page, cred Token) error {
	target, err := searchURL(a.host, "token", cred.Value)
	if err != nil {
		return err
	}

	location, err := page.Navigate(ctx, target)
	if err != nil {
		return engineError(err, "token navigation failed")
	}
	path, err := pathOf(location)
	if err != nil {
		return err
	}
	if path != pathHome {
		a.logger.Debugf("token landed on %s", path)
		return authError("invalid token")
	}

	a.logger.Debugf("token accepted")
	return nil
}

// login fills and submits the sign-in form, then the second-factor form if
// the service asks for one. Success is landing on /search.
func (a *authenticator) login(ctx context.Context, page engine.Page, cred Login) error {
	if err := submitForm(ctx, page, map[string]string{
		selectorEmailInput:    cred.Email,
		selectorPasswordInput: cred.Password,
	}, selectorEmailInput, selectorPasswordInput); err != nil {
		return err
	}

	path, err := currentPath(ctx, page)
	if err != nil {
		return err
	}

	if path == pathSignin {
		if cred.OTP == "" {
			return authError("2FA code required")
		}
		a.logger.Debugf("submitting second factor")
		if err := submitForm(ctx, page, map[string]string{
			selectorCodeInput: cred.OTP,
		}, selectorCodeInput); err != nil {
			return err
		}
		if path, err = currentPath(ctx, page); err != nil {
			return err
		}
	}

	if path != pathSearch {
		a.logger.Debugf("login landed on %s", path)
		return authError("login failed")
	}

	a.logger.Debugf("login accepted")
	return nil
}

// submitForm types values into the sign-in form inputs in the given order
// and clicks submit.
func submitForm(ctx context.Context, page engine.Page, values map[string]string, order ...string) error {
	form, err := page.FindElement(ctx, selectorSigninForm)
	if err != nil {
		return lookupError(err, selectorSigninForm)
	}

	for _, selector := range order {
		input, err := form.FindElement(ctx, selector)
		if err != nil {
			return lookupError(err, selector)
		}
		if err := input.Click(ctx); err != nil {
			return engineError(err, "click %s", selector)
		}
		if err := input.Type(ctx, values[selector]); err != nil {
			return engineError(err, "type into %s", selector)
		}
	}

	button, err := form.FindElement(ctx, selectorSubmitButton)
	if err != nil {
		return lookupError(err, selectorSubmitButton)
	}
	if err := page.Submit(ctx, button); err != nil {
		return engineError(err, "submit sign-in form")
	}
	return nil
}

func currentPath(ctx context.Context, page engine.Page) (string, error) {
	location, err := page.URL(ctx)
	if err != nil {
		return "", engineError(err, "failed to get URL")
	}
	return pathOf(location)
}

// lookupError reports a missing element as ElementNotFound and any other
// lookup failure by its engine classification.
func lookupError(err error, selector string) error {
	if isNotFound(err) {
		return elementError(err, selector)
	}
	return engineError(err, "find %s", selector)
}
