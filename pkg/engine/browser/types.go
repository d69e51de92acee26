package browser

import (
	"io"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/kagisearch/pkg/logging"
)

// contextPrefix names contexts created with NewContext.
const contextPrefix = "incognito-"

// Option configures a Launcher.
type Option func(*Launcher)

// WithInstall controls whether the driver and Chromium are downloaded on
// first launch. Default: true
func WithInstall(install bool) Option {
	return func(l *Launcher) {
		l.install = install
	}
}

// WithDriverOutput sends the driver's install and runtime output to w.
// Default: discarded
func WithDriverOutput(w io.Writer) Option {
	return func(l *Launcher) {
		if w == nil {
			w = io.Discard
		}
		l.runOptions.Stdout = w
		l.runOptions.Stderr = w
	}
}

// WithDriverDirectory sets where the driver is installed.
func WithDriverDirectory(dir string) Option {
	return func(l *Launcher) {
		l.runOptions.DriverDirectory = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func defaultRunOptions() *playwright.RunOptions {
	// Only Chromium is ever launched
	return &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
}
