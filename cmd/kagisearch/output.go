package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/kagisearch/pkg/search"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json or yaml)", s)
	}
}

// yamlResult fixes the key names of a result in YAML output.
type yamlResult struct {
	Title   string `yaml:"title"`
	URL     string `yaml:"url"`
	Snippet string `yaml:"snippet"`
}

func writeResults(w io.Writer, format outputFormat, results []search.Result) error {
	if results == nil {
		results = []search.Result{}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	case formatYAML:
		out := make([]yamlResult, len(results))
		for i, r := range results {
			out[i] = yamlResult(r)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, results)
	}
}

func writeText(w io.Writer, results []search.Result) error {
	title := color.New(color.Bold)
	link := color.New(color.FgCyan)

	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%2d. %s\n    %s\n", i+1, title.Sprint(r.Title), link.Sprint(r.URL)); err != nil {
			return err
		}
		if r.Snippet != "" {
			if _, err := fmt.Fprintf(w, "    %s\n", r.Snippet); err != nil {
				return err
			}
		}
	}
	return nil
}
