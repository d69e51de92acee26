package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Session is a running Chromium instance. Every Playwright call is made by
// a single worker loop that owns the driver handles; the exported methods
// queue commands for it and wait for the reply. Session implements
// engine.Browser.
type Session struct {
	cfg    engine.LaunchConfig
	logger *logging.Logger

	cmds chan func()
	stop chan struct{}
	done chan struct{}

	closeOnce sync.Once
	closeErr  error

	// Owned by the worker
	pw       *playwright.Playwright
	browser  playwright.Browser
	contexts map[engine.ContextID]playwright.BrowserContext
	next     int
}

func newSession(cfg engine.LaunchConfig, logger *logging.Logger) *Session {
	return &Session{
		cfg:      cfg,
		logger:   logger,
		cmds:     make(chan func()),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		contexts: make(map[engine.ContextID]playwright.BrowserContext),
	}
}

// loop runs queued commands until the session stops.
func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.cmds:
			cmd()
		case <-s.stop:
			return
		}
	}
}

// call runs fn on the worker and returns its result. It gives up when ctx
// is done or the session has stopped; a command already handed to the
// worker still runs to completion.
func call[T any](ctx context.Context, s *Session, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
	}
	out := make(chan result, 1)
	cmd := func() {
		v, err := fn()
		out <- result{value: v, err: translate(err)}
	}

	select {
	case s.cmds <- cmd:
	case <-s.stop:
		return zero, engine.ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-out:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Session) do(ctx context.Context, fn func() error) error {
	_, err := call(ctx, s, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// translate maps driver errors onto the engine sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) && !errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", engine.ErrClosed, err)
	}
	return err
}

// NewContext implements engine.Browser.
func (s *Session) NewContext(ctx context.Context) (engine.ContextID, error) {
	return call(ctx, s, func() (engine.ContextID, error) {
		bctx, err := s.newContext()
		if err != nil {
			return "", err
		}
		s.next++
		id := engine.ContextID(fmt.Sprintf("%s%d", contextPrefix, s.next))
		s.contexts[id] = bctx
		s.logger.Debugf("context %s created", id)
		return id, nil
	})
}

// DisposeContext implements engine.Browser.
func (s *Session) DisposeContext(ctx context.Context, id engine.ContextID) error {
	return s.do(ctx, func() error {
		if id == engine.DefaultContext {
			return fmt.Errorf("cannot dispose the default context")
		}
		bctx, ok := s.contexts[id]
		if !ok {
			return fmt.Errorf("unknown context %q", id)
		}
		delete(s.contexts, id)
		if err := bctx.Close(); err != nil {
			return fmt.Errorf("failed to close context %s: %w", id, err)
		}
		s.logger.Debugf("context %s disposed", id)
		return nil
	})
}

// NewPage implements engine.Browser.
func (s *Session) NewPage(ctx context.Context, id engine.ContextID) (engine.Page, error) {
	return call(ctx, s, func() (engine.Page, error) {
		bctx, ok := s.contexts[id]
		if !ok {
			return nil, fmt.Errorf("unknown context %q", id)
		}
		page, err := bctx.NewPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		return &Page{session: s, page: page}, nil
	})
}

// Cookies implements engine.Browser.
func (s *Session) Cookies(ctx context.Context) ([]engine.Cookie, error) {
	return call(ctx, s, func() ([]engine.Cookie, error) {
		bctx, err := s.baseline()
		if err != nil {
			return nil, err
		}
		cookies, err := bctx.Cookies()
		if err != nil {
			return nil, fmt.Errorf("failed to read cookies: %w", err)
		}
		return fromPlaywrightCookies(cookies), nil
	})
}

// SetCookies implements engine.Browser.
func (s *Session) SetCookies(ctx context.Context, cookies []engine.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	return s.do(ctx, func() error {
		bctx, err := s.baseline()
		if err != nil {
			return err
		}
		if err := bctx.AddCookies(toPlaywrightCookies(cookies)); err != nil {
			return fmt.Errorf("failed to add cookies: %w", err)
		}
		return nil
	})
}

// baseline returns the context created at launch. Runs on the worker.
func (s *Session) baseline() (playwright.BrowserContext, error) {
	bctx, ok := s.contexts[engine.DefaultContext]
	if !ok {
		return nil, fmt.Errorf("session not started")
	}
	return bctx, nil
}

// Close closes every context, the browser and the driver, then stops the
// worker. Later calls return the first call's result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.do(context.WithoutCancel(ctx), s.shutdown)
		close(s.stop)
		<-s.done
	})
	return s.closeErr
}

// shutdown releases the driver handles. Runs on the worker.
func (s *Session) shutdown() error {
	var errs []error
	for id, bctx := range s.contexts {
		if err := bctx.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
			errs = append(errs, fmt.Errorf("context %q: %w", id, err))
		}
		delete(s.contexts, id)
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}
	s.logger.Debugf("session closed")
	return errors.Join(errs...)
}
