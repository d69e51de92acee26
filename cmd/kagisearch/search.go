package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/entrhq/kagisearch/pkg/config"
	"github.com/entrhq/kagisearch/pkg/cookiestore"
	"github.com/entrhq/kagisearch/pkg/search"
)

// errNoResults is returned when a search completes without rendering results.
var errNoResults = errors.New("no results")

type searchFlags struct {
	limit       int
	token       string
	email       string
	password    string
	otp         string
	cookieFile  string
	incognito   bool
	saveCookies bool
	headless    bool
	output      string
}

func newSearchCmd(a *app) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Run a search and print the results",
		Long: `Run a search and print the results.

Credentials are taken from, in order: --token or --email, the saved cookie
file, the config file and KAGI_* environment, then an interactive prompt.
After a successful token or login search the session cookies are saved so
later runs skip the sign-in.

With --incognito the browser keeps no identity between runs: the credential
is used in a throwaway context and no cookies are saved.`,
		Example: `  kagisearch search golang generics
  kagisearch search --limit 3 -o json "rust async"
  kagisearch search --incognito --token $KAGI_TOKEN privacy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, a, f, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.limit, "limit", "n", 10, "maximum number of results")
	flags.StringVar(&f.token, "token", "", "session link token")
	flags.StringVar(&f.email, "email", "", "account email")
	flags.StringVar(&f.password, "password", "", "account password (prompted when --email is set without it)")
	flags.StringVar(&f.otp, "otp", "", "two-factor code")
	flags.StringVar(&f.cookieFile, "cookies", "", "cookie file (default is $HOME/.kagisearch/cookies.json)")
	flags.BoolVar(&f.incognito, "incognito", false, "authenticate in a throwaway context and keep no cookies")
	flags.BoolVar(&f.saveCookies, "save-cookies", true, "save session cookies after a successful sign-in")
	flags.BoolVar(&f.headless, "headless", true, "run the browser without a window")
	flags.StringVarP(&f.output, "output", "o", "text", "output format: text, json or yaml")
	cmd.MarkFlagsMutuallyExclusive("token", "email")

	return cmd
}

func runSearch(cmd *cobra.Command, a *app, f *searchFlags, query string) error {
	format, err := parseFormat(f.output)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = f.headless
	}
	if f.cookieFile != "" {
		cfg.CookieFile = f.cookieFile
	}

	logger, err := a.logger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := cookiestore.NewFileStore(cfg.CookieFile)
	if err != nil {
		return err
	}

	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	cred, err := resolveCredential(f, cfg, store, p)
	if err != nil {
		return err
	}
	logger.Debugf("using credential %v", cred)

	baseline := cred
	var searchOpts []search.SearchOption
	if f.incognito {
		baseline = search.Incognito{}
		searchOpts = append(searchOpts, search.WithOverride(cred))
	}

	ctx := cmd.Context()
	opts := append(cfg.Options(), search.WithLogger(logger))
	ctrl, err := search.New(ctx, a.newLauncher(logger), baseline, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ctrl.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warnf("failed to close browser: %v", cerr)
		}
	}()

	results, ok, err := ctrl.Search(ctx, query, f.limit, searchOpts...)
	if err != nil {
		if errors.Is(err, search.ErrAuth) && cred.Kind() == search.CredentialCookies {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
				"The saved session in %s was rejected. Sign in again with --token or --email.\n", store.Path())
		}
		return err
	}
	if !ok {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "No results rendered for %q\n", query)
		return errNoResults
	}

	if f.saveCookies && !f.incognito && cred.Kind() != search.CredentialCookies {
		if err := saveCookies(ctx, ctrl, store); err != nil {
			logger.Warnf("%v", err)
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		} else {
			logger.Infof("session cookies saved to %s", store.Path())
		}
	}

	return writeResults(cmd.OutOrStdout(), format, results)
}

// resolveCredential picks the credential for a search. Explicit flags win,
// then saved cookies, then the configuration, then the prompt. Saved cookies
// are skipped in incognito mode, which needs a token or login.
func resolveCredential(f *searchFlags, cfg *config.Config, store cookiestore.Store, p *prompter) (search.Credential, error) {
	switch {
	case f.token != "":
		return search.Token{Value: f.token}, nil
	case f.email != "":
		password := f.password
		if password == "" {
			var err error
			if password, err = p.secret("Password: "); err != nil {
				return nil, err
			}
		}
		return search.Login{Email: f.email, Password: password, OTP: f.otp}, nil
	}

	if !f.incognito && store.Exists() {
		cookies, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load saved cookies: %w", err)
		}
		return search.CookieJar{Cookies: cookies}, nil
	}

	if cred, ok := cfg.Credentials.Credential(); ok {
		return cred, nil
	}

	return p.credential()
}

func saveCookies(ctx context.Context, ctrl *search.Controller, store cookiestore.Store) error {
	cookies, err := ctrl.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session cookies: %w", err)
	}
	if err := store.Save(cookies); err != nil {
		return fmt.Errorf("failed to save session cookies: %w", err)
	}
	return nil
}
