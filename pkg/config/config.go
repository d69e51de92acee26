package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
	"github.com/entrhq/kagisearch/pkg/search"
)

// Config represents the configuration of a search session and the CLI
type Config struct {
	// Search service origin
	Host string `yaml:"host" toml:"host" json:"host"`

	// Browser settings
	Headless          bool     `yaml:"headless" toml:"headless" json:"headless"`
	NavigationTimeout Duration `yaml:"navigation_timeout" toml:"navigation_timeout" json:"navigation_timeout"`
	BrowserArgs       []string `yaml:"browser_args" toml:"browser_args" json:"browser_args"`

	// Result polling
	PollAttempts int      `yaml:"poll_attempts" toml:"poll_attempts" json:"poll_attempts"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval" json:"poll_interval"`

	// Sign-in rounds tolerated per search
	MaxAuthAttempts int `yaml:"max_auth_attempts" toml:"max_auth_attempts" json:"max_auth_attempts"`

	// Where the CLI keeps session cookies between runs
	CookieFile string `yaml:"cookie_file" toml:"cookie_file" json:"cookie_file"`

	// Logging level: debug, info, warn, error
	LogLevel string `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Credentials used when none is given on the command line
	Credentials Credentials `yaml:"credentials" toml:"credentials" json:"credentials"`
}

// Credentials holds the secrets a session may authenticate with.
type Credentials struct {
	Token    string `yaml:"token" toml:"token" json:"token,omitempty"`
	Email    string `yaml:"email" toml:"email" json:"email,omitempty"`
	Password string `yaml:"password" toml:"password" json:"password,omitempty"`
	OTP      string `yaml:"otp" toml:"otp" json:"otp,omitempty"`
}

// Credential returns the token if one is set, otherwise the login if both
// email and password are set. ok is false when neither is available.
func (c Credentials) Credential() (cred search.Credential, ok bool) {
	switch {
	case c.Token != "":
		return search.Token{Value: c.Token}, true
	case c.Email != "" && c.Password != "":
		return search.Login{Email: c.Email, Password: c.Password, OTP: c.OTP}, true
	default:
		return nil, false
	}
}

// DefaultConfig returns a configuration matching the Controller defaults
func DefaultConfig() *Config {
	return &Config{
		Host:              search.DefaultHost,
		Headless:          true,
		NavigationTimeout: Duration(engine.DefaultNavigationTimeout),
		PollAttempts:      search.DefaultPollAttempts,
		PollInterval:      Duration(search.DefaultPollInterval),
		MaxAuthAttempts:   search.DefaultMaxAuthAttempts,
		LogLevel:          "info",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid host %q: scheme must be http or https", c.Host)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid host %q: missing host name", c.Host)
	}

	if c.PollAttempts < 1 {
		return fmt.Errorf("poll_attempts must be at least 1")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval cannot be negative")
	}
	if c.MaxAuthAttempts < 1 {
		return fmt.Errorf("max_auth_attempts must be at least 1")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive")
	}

	// Set default level if not specified
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	return nil
}

// Options converts the configuration into Controller options.
func (c *Config) Options() []search.Option {
	opts := []search.Option{
		search.WithHost(c.Host),
		search.WithHeadless(c.Headless),
		search.WithPolling(c.PollAttempts, time.Duration(c.PollInterval)),
		search.WithMaxAuthAttempts(c.MaxAuthAttempts),
		search.WithNavigationTimeout(time.Duration(c.NavigationTimeout)),
	}
	if len(c.BrowserArgs) > 0 {
		opts = append(opts, search.WithBrowserArgs(c.BrowserArgs...))
	}
	return opts
}

// Duration is a time.Duration written as a string such as "1s" or "250ms"
// in every config format.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
