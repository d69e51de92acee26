package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Launcher starts Playwright-driven Chromium sessions. It implements
// engine.Launcher.
type Launcher struct {
	mu         sync.Mutex
	install    bool
	installed  bool
	runOptions *playwright.RunOptions
	logger     *logging.Logger
}

// NewLauncher creates a new launcher.
func NewLauncher(opts ...Option) *Launcher {
	l := &Launcher{
		install:    true,
		runOptions: defaultRunOptions(),
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Component("browser")
	return l
}

// Install downloads the driver and Chromium if they are missing. Launch
// calls it on first use unless installation was disabled.
func (l *Launcher) Install() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.installed {
		return nil
	}
	if err := playwright.Install(l.runOptions); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	l.installed = true
	l.logger.Debugf("playwright installed")
	return nil
}

// Launch starts a driver and a Chromium instance configured by cfg. The
// returned session owns both; Close stops them.
func (l *Launcher) Launch(ctx context.Context, cfg engine.LaunchConfig) (engine.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.install {
		if err := l.Install(); err != nil {
			return nil, err
		}
	}

	s := newSession(cfg, l.logger)
	spawner := cfg.Spawner
	if spawner == nil {
		spawner = engine.GoSpawner{}
	}
	spawner.Spawn(s.loop)

	if err := s.do(ctx, func() error { return s.start(l.runOptions) }); err != nil {
		_ = s.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	l.logger.Infof("chromium launched (headless=%t)", cfg.Headless)
	return s, nil
}

// start brings up the driver, the browser and the baseline context. Runs on
// the worker.
func (s *Session) start(runOptions *playwright.RunOptions) error {
	pw, err := playwright.Run(runOptions)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
		Args:     s.cfg.Args,
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	s.browser = browser

	bctx, err := s.newContext()
	if err != nil {
		return err
	}
	s.contexts[engine.DefaultContext] = bctx
	return nil
}

// newContext creates a context with the launch viewport, timeouts and init
// scripts. Runs on the worker.
func (s *Session) newContext() (playwright.BrowserContext, error) {
	viewport := s.cfg.Viewport
	if viewport.Width == 0 || viewport.Height == 0 {
		viewport = engine.Viewport{Width: engine.DefaultViewportWidth, Height: engine.DefaultViewportHeight}
	}

	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  viewport.Width,
			Height: viewport.Height,
		},
		Screen: &playwright.Size{
			Width:  viewport.Width,
			Height: viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = engine.DefaultNavigationTimeout
	}
	ms := float64(timeout.Milliseconds())
	bctx.SetDefaultNavigationTimeout(ms)
	bctx.SetDefaultTimeout(ms)

	for _, script := range s.cfg.InitScripts {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("failed to add init script: %w", err)
		}
	}
	return bctx, nil
}
