package search

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/logging"
)

// Results page selectors.
const (
	selectorResultsBox = ".results-box"
	selectorResult     = ".search-result"
)

// poller waits for result nodes to render. Results arrive asynchronously
// after /search loads, so an empty container is retried with a fixed pause
// until the attempt budget runs out.
type poller struct {
	attempts int
	interval time.Duration
	logger   *logging.Logger
}

// poll returns the result nodes, or ok=false if none rendered within the
// budget. A missing container counts as not rendered yet; any other lookup
// failure ends polling with an error.
func (p *poller) poll(ctx context.Context, page engine.Finder) (nodes []engine.Element, ok bool, err error) {
	builder := retrypolicy.NewBuilder[[]engine.Element]().
		HandleIf(func(nodes []engine.Element, err error) bool {
			return err == nil && len(nodes) == 0
		}).
		WithMaxAttempts(max(p.attempts, 1)).
		ReturnLastFailure()
	if p.interval > 0 {
		builder = builder.WithDelay(p.interval)
	}

	attempt := 0
	nodes, err = failsafe.With[[]engine.Element](builder.Build()).
		WithContext(ctx).
		Get(func() ([]engine.Element, error) {
			attempt++
			found, err := p.renderedNodes(ctx, page)
			if err == nil && len(found) == 0 {
				p.logger.Debugf("no search results yet (attempt %d/%d)", attempt, p.attempts)
			}
			return found, err
		})
	if err != nil {
		return nil, false, engineError(err, "waiting for results")
	}
	if len(nodes) == 0 {
		return nil, false, nil
	}

	p.logger.Debugf("%d search results rendered after %d attempts", len(nodes), attempt)
	return nodes, true, nil
}

func (p *poller) renderedNodes(ctx context.Context, page engine.Finder) ([]engine.Element, error) {
	box, err := page.FindElement(ctx, selectorResultsBox)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return box.FindElements(ctx, selectorResult)
}
