// Package main provides the kagisearch command line client: authenticated
// Kagi searches from a terminal, with session cookies kept between runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/entrhq/kagisearch/pkg/config"
	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/engine/browser"
	"github.com/entrhq/kagisearch/pkg/logging"
)

const version = "0.1.0"

// app holds state shared by every command.
type app struct {
	cfgFile string
	verbose bool
	noColor bool

	// newLauncher builds the browser engine; tests replace it
	newLauncher func(logger *logging.Logger) engine.Launcher
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{
		newLauncher: func(logger *logging.Logger) engine.Launcher {
			return browser.NewLauncher(browser.WithLogger(logger))
		},
	})
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "kagisearch",
		Short:         "Search Kagi from the command line",
		Long:          "kagisearch signs in to Kagi through a headless Chromium and prints structured search results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file, .yaml, .toml or .json (default is $HOME/.kagisearch/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kagisearch v%s\n", version)
		},
	}
}

// loadConfig reads the configuration named by --config.
func (a *app) loadConfig() (*config.Config, error) {
	return config.Load(a.cfgFile)
}

// logger returns a stderr logger with --verbose and the session log file
// otherwise. The caller closes it.
func (a *app) logger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	if a.verbose {
		return logging.New(cmd.ErrOrStderr(), "kagisearch", zerolog.DebugLevel), nil
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	// On error NewLogger still returns a stderr logger
	logger, _ := logging.NewLogger("kagisearch")
	logger.SetLevel(level)
	return logger, nil
}
