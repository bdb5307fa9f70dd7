package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/browserpilot/browserpilot/browser"
)

// fakeEngine scripts engine behavior per action name and counts calls.
type fakeEngine struct {
	results    map[string]*browser.Result
	actErr     error
	snapshot   string
	snapErr    error
	actCalls   int
	snapCalls  int
	closeCalls int
}

func (f *fakeEngine) Act(_ context.Context, action browser.Action) (*browser.Result, error) {
	f.actCalls++
	if f.actErr != nil {
		return nil, f.actErr
	}
	if res, ok := f.results[action.Name()]; ok {
		return res, nil
	}
	return &browser.Result{}, nil
}

func (f *fakeEngine) Snapshot(context.Context) (string, error) {
	f.snapCalls++
	if f.snapErr != nil {
		return "", f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeEngine) Close() error {
	f.closeCalls++
	return nil
}

func newTestManager(t *testing.T, engine *fakeEngine, maxTokens int) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Budget: BudgetConfig{MaxTokens: maxTokens},
	}, engine, nil, runeTok{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestExecuteActionSuccessUsesExtractedContent(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*browser.Result{
			"extract_content": {ExtractedContent: "the page text"},
		},
		snapshot: "[1]<a>link</a>\n",
	}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.ExtractContent{Format: "text"})
	require.NoError(t, out.Exception)
	assert.Equal(t, 1, out.Seq)
	assert.Empty(t, out.EngineErr)
	assert.Contains(t, out.Text, "the page text")
	assert.Contains(t, out.Text, Separator)
	assert.Contains(t, out.Text, "[1]<a>link</a>")

	entries := m.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "extract_content(value=text)", entries[0].Action)
	assert.Equal(t, "the page text", entries[0].Result)
}

func TestExecuteActionFallbackPlaceholder(t *testing.T) {
	engine := &fakeEngine{snapshot: "[1]<button>ok</button>\n"}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.ClickElement{Index: 1})
	require.NoError(t, out.Exception)

	entries := m.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "click_element(index=1)", entries[0].Action)
	assert.Equal(t, "Clicked element.", entries[0].Result)
}

func TestExecuteActionEmptyDropdownUsesFallback(t *testing.T) {
	// A select element with zero options succeeds but extracts nothing;
	// the agent sees the placeholder, not an error.
	engine := &fakeEngine{
		results: map[string]*browser.Result{
			"get_dropdown_options": {},
		},
		snapshot: "[1]<select></select>\n",
	}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.GetDropdownOptions{Index: 1})
	require.NoError(t, out.Exception)
	assert.Empty(t, out.EngineErr)
	assert.Equal(t, "No dropdown options found.", m.History().Entries()[0].Result)
}

func TestExecuteActionEngineErrorRecorded(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*browser.Result{
			"click_element": {Err: "element not found"},
		},
		snapshot: "",
	}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.ClickElement{Index: 3})
	require.NoError(t, out.Exception)
	assert.Equal(t, "element not found", out.EngineErr)
	assert.Contains(t, out.Text, "Error: element not found")

	// The exact error text is what lands in history, and the failure is
	// recorded rather than dropped.
	entries := m.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Error: element not found", entries[0].Result)
}

func TestExecuteActionEngineExceptionRecorded(t *testing.T) {
	engine := &fakeEngine{actErr: errors.New("browser crashed")}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.GoToURL{URL: "https://a"})
	require.Error(t, out.Exception)
	assert.Equal(t, "Exception in go_to_url: browser crashed", out.Text)

	entries := m.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "go_to_url(url=https://a)", entries[0].Action)
	assert.Equal(t, "Exception in go_to_url: browser crashed", entries[0].Result)
	assert.Equal(t, 0, engine.snapCalls)
}

func TestExecuteActionSnapshotExceptionRecorded(t *testing.T) {
	engine := &fakeEngine{snapErr: errors.New("tab gone")}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.ScrollDown{})
	require.Error(t, out.Exception)
	assert.Equal(t, "Exception in scroll_down: tab gone", out.Text)

	// The action result was appended first, then the exception entry.
	entries := m.History().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Scrolled down.", entries[0].Result)
	assert.Equal(t, "Exception in scroll_down: tab gone", entries[1].Result)
}

func TestExecuteActionDoneSkipsSnapshot(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*browser.Result{
			"done": {ExtractedContent: "final answer"},
		},
	}
	m := newTestManager(t, engine, 100000)

	out := m.ExecuteAction(context.Background(), browser.Done{Text: "final answer"})
	require.NoError(t, out.Exception)
	assert.Equal(t, 0, engine.snapCalls)
	assert.NotContains(t, out.Text, Separator)
	assert.True(t, strings.HasSuffix(out.Text, "final answer"))
}

func TestExecuteActionOverBudgetFlagged(t *testing.T) {
	engine := &fakeEngine{snapshot: strings.Repeat("p", 50)}
	m := newTestManager(t, engine, 30)

	// First call builds enough history that history+separator alone
	// exceed 30 tokens on the second call.
	m.ExecuteAction(context.Background(), browser.GoToURL{URL: "https://a-long-url.example.com"})
	out := m.ExecuteAction(context.Background(), browser.ScrollDown{})

	require.NoError(t, out.Exception)
	assert.True(t, out.OverBudget)
	assert.Contains(t, out.Text, Sentinel)
}

func TestExecuteActionBudgetAppliedToObservation(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*browser.Result{
			"extract_content": {ExtractedContent: strings.Repeat("x", 500)},
		},
		snapshot: strings.Repeat("p", 500),
	}
	m := newTestManager(t, engine, 700)

	out := m.ExecuteAction(context.Background(), browser.ExtractContent{Format: "text"})
	require.NoError(t, out.Exception)
	assert.False(t, out.OverBudget)
	// The full 500-token spans cannot both be present.
	assert.Less(t, len([]rune(out.Text)), 1000)

	// The stored entry keeps the full result; only the rendering is cut.
	assert.Equal(t, strings.Repeat("x", 500), m.History().Entries()[0].Result)
}

func TestExecuteActionAsyncCountingMatchesInline(t *testing.T) {
	mk := func(workers int) (*Manager, *fakeEngine) {
		engine := &fakeEngine{
			results: map[string]*browser.Result{
				"extract_content": {ExtractedContent: strings.Repeat("x", 400)},
			},
			snapshot: strings.Repeat("p", 400),
		}
		m, err := NewManager(Config{
			Budget:       BudgetConfig{MaxTokens: 500},
			TokenWorkers: workers,
		}, engine, nil, runeTok{}, zap.NewNop())
		require.NoError(t, err)
		return m, engine
	}

	inline, _ := mk(0)
	defer inline.Close()
	async, _ := mk(4)
	defer async.Close()

	a := inline.ExecuteAction(context.Background(), browser.ExtractContent{Format: "text"})
	b := async.ExecuteAction(context.Background(), browser.ExtractContent{Format: "text"})
	assert.Equal(t, a.Text, b.Text)
}

func TestManagerCloseIdempotent(t *testing.T) {
	engine := &fakeEngine{}
	m, err := NewManager(Config{Budget: DefaultBudgetConfig()}, engine, nil, runeTok{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, engine.closeCalls)
}

func TestExecuteActionAfterCloseIsException(t *testing.T) {
	engine := &fakeEngine{}
	m, err := NewManager(Config{Budget: DefaultBudgetConfig()}, engine, nil, runeTok{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Close())

	out := m.ExecuteAction(context.Background(), browser.GoBack{})
	require.ErrorIs(t, out.Exception, ErrClosed)
	assert.Equal(t, "Exception in go_back: session is closed", out.Text)
	assert.Equal(t, 0, engine.actCalls)
}

func TestNewManagerValidation(t *testing.T) {
	engine := &fakeEngine{}

	_, err := NewManager(Config{Budget: BudgetConfig{MaxTokens: 0}}, engine, nil, runeTok{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewManager(Config{Budget: DefaultBudgetConfig()}, nil, nil, runeTok{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewManager(Config{Budget: DefaultBudgetConfig()}, engine, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
