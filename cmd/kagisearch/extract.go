package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/entrhq/kagisearch/pkg/engine/htmldoc"
	"github.com/entrhq/kagisearch/pkg/logging"
	"github.com/entrhq/kagisearch/pkg/search"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract <file.html|->",
		Short: "Extract results from a saved results page",
		Long: `Extract results from a results page saved to disk, without a browser.
Use - to read the page from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open page: %w", err)
				}
				defer file.Close()
				r = file
			}

			doc, err := htmldoc.Parse(r)
			if err != nil {
				return err
			}

			logger := logging.Nop()
			if a.verbose {
				logger = logging.New(cmd.ErrOrStderr(), "kagisearch", zerolog.DebugLevel)
			}

			results, ok, err := search.ExtractResults(cmd.Context(), doc, limit, logger)
			if err != nil {
				return err
			}
			if !ok {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "No results found in %s\n", args[0])
				return errNoResults
			}
			return writeResults(cmd.OutOrStdout(), format, results)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}
