package search

import (
	"time"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Default values for a Controller
const (
	DefaultHost            = "https://kagi.com"
	DefaultPollAttempts    = 5
	DefaultPollInterval    = 1000 * time.Millisecond
	DefaultMaxAuthAttempts = 3
)

// options holds Controller configuration.
type options struct {
	host              string
	pollAttempts      int
	pollInterval      time.Duration
	maxAuthAttempts   int
	headless          bool
	browserArgs       []string
	navigationTimeout time.Duration
	spawner           engine.Spawner
	logger            *logging.Logger
}

func defaultOptions() options {
	return options{
		host:              DefaultHost,
		pollAttempts:      DefaultPollAttempts,
		pollInterval:      DefaultPollInterval,
		maxAuthAttempts:   DefaultMaxAuthAttempts,
		headless:          true,
		navigationTimeout: engine.DefaultNavigationTimeout,
		spawner:           engine.GoSpawner{},
		logger:            logging.Nop(),
	}
}

// Option configures a Controller.
type Option func(*options)

// WithHost sets the search service origin, e.g. "https://kagi.com".
func WithHost(host string) Option {
	return func(o *options) {
		if host != "" {
			o.host = host
		}
	}
}

// WithPolling sets how many times the results container is checked and the
// fixed pause between checks.
func WithPolling(attempts int, interval time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.pollAttempts = attempts
		}
		if interval >= 0 {
			o.pollInterval = interval
		}
	}
}

// WithMaxAuthAttempts caps how many sign-in redirects one search tolerates.
func WithMaxAuthAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAuthAttempts = n
		}
	}
}

// WithHeadless controls whether the browser window is hidden.
func WithHeadless(headless bool) Option {
	return func(o *options) {
		o.headless = headless
	}
}

// WithBrowserArgs appends command line switches after the fingerprint-evasion ones.
func WithBrowserArgs(args ...string) Option {
	return func(o *options) {
		o.browserArgs = append(o.browserArgs, args...)
	}
}

// WithNavigationTimeout bounds each navigation and element wait.
func WithNavigationTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.navigationTimeout = d
		}
	}
}

// WithSpawner sets how the engine's background loop is started.
func WithSpawner(s engine.Spawner) Option {
	return func(o *options) {
		if s != nil {
			o.spawner = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// SearchOption configures a single Search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	override Credential
}

// WithOverride authenticates this search alone with cred, in a browsing
// context discarded when the call returns. cred must be a Token or Login.
func WithOverride(cred Credential) SearchOption {
	return func(o *searchOptions) {
		o.override = cred
	}
}
