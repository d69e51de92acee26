package search

import (
	"context"
	"errors"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Result node field selectors.
const (
	selectorTitle   = ".__sri-title"
	selectorURL     = ".__sri-url-box a[href]"
	selectorSnippet = ".__sri-desc"
)

// Result is one search result. All fields are always set.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// errMissingField marks a node that lacks one of the result fields.
var errMissingField = errors.New("missing field")

// extractor turns rendered result nodes into Results.
type extractor struct {
	logger *logging.Logger
}

// extract visits nodes in order and returns at most limit results. Nodes
// missing a field are skipped without counting toward limit, and scanning
// stops as soon as limit results are collected.
func (x *extractor) extract(ctx context.Context, nodes []engine.Element, limit int) ([]Result, error) {
	results := make([]Result, 0, min(max(limit, 0), len(nodes)))
	for i, node := range nodes {
		if len(results) >= limit {
			break
		}
		result, err := x.node(ctx, node)
		if errors.Is(err, errMissingField) {
			x.logger.Debugf("skipping result %d: %v", i, err)
			continue
		}
		if err != nil {
			return nil, engineError(err, "reading result %d", i)
		}
		results = append(results, result)
	}
	return results, nil
}

func (x *extractor) node(ctx context.Context, node engine.Element) (Result, error) {
	title, err := fieldText(ctx, node, selectorTitle)
	if err != nil {
		return Result{}, err
	}
	url, err := fieldAttribute(ctx, node, selectorURL, "href")
	if err != nil {
		return Result{}, err
	}
	snippet, err := fieldText(ctx, node, selectorSnippet)
	if err != nil {
		return Result{}, err
	}
	return Result{Title: title, URL: url, Snippet: snippet}, nil
}

func fieldText(ctx context.Context, node engine.Element, selector string) (string, error) {
	el, err := node.FindElement(ctx, selector)
	if err != nil {
		return "", fieldError(err, selector)
	}
	text, ok, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &fieldErr{selector: selector}
	}
	return text, nil
}

func fieldAttribute(ctx context.Context, node engine.Element, selector, name string) (string, error) {
	el, err := node.FindElement(ctx, selector)
	if err != nil {
		return "", fieldError(err, selector)
	}
	value, ok, err := el.Attribute(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return "", &fieldErr{selector: selector + "@" + name}
	}
	return value, nil
}

// fieldError drops the node on a failed lookup unless the session itself is gone.
func fieldError(err error, selector string) error {
	if errors.Is(err, engine.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &fieldErr{selector: selector}
}

type fieldErr struct {
	selector string
}

func (e *fieldErr) Error() string { return "missing field " + e.selector }
func (e *fieldErr) Unwrap() error { return errMissingField }
