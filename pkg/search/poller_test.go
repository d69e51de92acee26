package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/kagisearch/pkg/engine"
	"github.com/entrhq/kagisearch/pkg/engine/htmldoc"
	"github.com/entrhq/kagisearch/pkg/logging"
)

const emptyResults = `<div class="results-box"></div>`

const twoResults = `<div class="results-box">
  <div class="search-result">one</div>
  <div class="search-result">two</div>
</div>`

// scriptedFinder serves one document per lookup, repeating the last.
type scriptedFinder struct {
	t     *testing.T
	pages []string
	err   error
	calls int
}

func (f *scriptedFinder) doc() *htmldoc.Document {
	i := min(f.calls, len(f.pages)-1)
	f.calls++
	doc, err := htmldoc.ParseString(f.pages[i])
	require.NoError(f.t, err)
	return doc
}

func (f *scriptedFinder) FindElement(ctx context.Context, selector string) (engine.Element, error) {
	if f.err != nil {
		f.calls++
		return nil, f.err
	}
	return f.doc().FindElement(ctx, selector)
}

func (f *scriptedFinder) FindElements(ctx context.Context, selector string) ([]engine.Element, error) {
	if f.err != nil {
		f.calls++
		return nil, f.err
	}
	return f.doc().FindElements(ctx, selector)
}

func newPoller(attempts int, interval time.Duration) poller {
	return poller{attempts: attempts, interval: interval, logger: logging.Nop()}
}

func TestPollDefaults(t *testing.T) {
	o := defaultOptions()
	assert.Equal(t, 5, o.pollAttempts)
	assert.Equal(t, time.Second, o.pollInterval)
	assert.Equal(t, 3, o.maxAuthAttempts)
	assert.Equal(t, "https://kagi.com", o.host)
	assert.True(t, o.headless)
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name      string
		pages     []string
		attempts  int
		wantOK    bool
		wantNodes int
		wantCalls int
	}{
		{
			name:      "rendered immediately",
			pages:     []string{twoResults},
			attempts:  5,
			wantOK:    true,
			wantNodes: 2,
			wantCalls: 1,
		},
		{
			name:      "rendered on last attempt",
			pages:     []string{emptyResults, emptyResults, emptyResults, emptyResults, twoResults},
			attempts:  5,
			wantOK:    true,
			wantNodes: 2,
			wantCalls: 5,
		},
		{
			name:      "never rendered",
			pages:     []string{emptyResults},
			attempts:  5,
			wantCalls: 5,
		},
		{
			name:      "container missing counts as not rendered",
			pages:     []string{`<p>loading</p>`, twoResults},
			attempts:  5,
			wantOK:    true,
			wantNodes: 2,
			wantCalls: 2,
		},
		{
			name:      "renders after budget",
			pages:     []string{emptyResults, emptyResults, twoResults},
			attempts:  2,
			wantCalls: 2,
		},
		{
			name:      "zero attempts still checks once",
			pages:     []string{twoResults},
			attempts:  0,
			wantOK:    true,
			wantNodes: 2,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &scriptedFinder{t: t, pages: tt.pages}
			p := newPoller(tt.attempts, time.Millisecond)

			nodes, ok, err := p.poll(context.Background(), finder)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, nodes, tt.wantNodes)
			assert.Equal(t, tt.wantCalls, finder.calls)
		})
	}
}

func TestPoll_WaitsBetweenAttempts(t *testing.T) {
	finder := &scriptedFinder{t: t, pages: []string{emptyResults}}
	p := newPoller(3, 20*time.Millisecond)

	start := time.Now()
	_, ok, err := p.poll(context.Background(), finder)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPoll_LookupFailureAborts(t *testing.T) {
	finder := &scriptedFinder{t: t, err: engine.ErrClosed}
	p := newPoller(5, time.Millisecond)

	_, ok, err := p.poll(context.Background(), finder)
	require.ErrorIs(t, err, ErrBrowser)
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.False(t, ok)
	assert.Equal(t, 1, finder.calls)
}

func TestPoll_Canceled(t *testing.T) {
	finder := &scriptedFinder{t: t, pages: []string{emptyResults}}
	p := newPoller(5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := p.poll(ctx, finder)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
	assert.False(t, ok)
}
