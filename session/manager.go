package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/browserpilot/browserpilot/browser"
	"github.com/browserpilot/browserpilot/internal/metrics"
	"github.com/browserpilot/browserpilot/tokenizer"
)

// ErrClosed is returned by ExecuteAction (wrapped in the Outcome's
// Exception) after the session has been closed.
var ErrClosed = errors.New("session is closed")

// Config configures a session manager.
type Config struct {
	Budget BudgetConfig `yaml:"budget" json:"budget"`

	// TokenWorkers sizes the worker pool for offloaded token counting.
	// Zero disables offloading; counting then runs inline.
	TokenWorkers int `yaml:"token_workers" json:"token_workers"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Budget:       DefaultBudgetConfig(),
		TokenWorkers: 4,
	}
}

// Outcome is the result of one action execution. Failures are data, not
// control flow: Text always holds the observation to hand back to the
// agent, and the remaining fields report what happened. ExecuteAction
// never propagates an action failure to its caller.
type Outcome struct {
	// Text is the observation string for the agent: the budget-compliant
	// composed context on the normal path, or the recorded exception text.
	Text string

	// Seq is the history sequence number assigned to this action.
	Seq int

	// EngineErr is the engine-reported error text, if any. The same text
	// is embedded in the recorded result as "Error: ...".
	EngineErr string

	// Exception is set when a collaborator failed unexpectedly. The
	// failure was recorded into history and Text carries its message;
	// from the manager's perspective this is still a successful return.
	Exception error

	// OverBudget reports that history and separator alone exceed the
	// budget, so Text is over the limit despite both truncatable spans
	// being fully elided.
	OverBudget bool
}

// Manager orchestrates one agent session: it executes actions against the
// engine, accumulates the append-only history, and composes each
// observation under the token budget.
//
// A Manager expects sequential use: the agent issues one tool call,
// awaits its observation, then decides the next. Construct one Manager per
// session and pass it by reference to every tool adapter; there is no
// shared global instance.
type Manager struct {
	id        string
	config    Config
	engine    browser.Engine
	snapshots browser.SnapshotProvider
	history   *History
	composer  *Composer
	counter   *tokenizer.AsyncCounter // nil when counting runs inline
	logger    *zap.Logger
	metrics   *metrics.Collector
	closed    atomic.Bool
}

// NewManager creates a session manager. snapshots may be nil if engine
// also implements browser.SnapshotProvider.
func NewManager(config Config, engine browser.Engine, snapshots browser.SnapshotProvider, tok tokenizer.Tokenizer, logger *zap.Logger) (*Manager, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}
	if config.Budget.MaxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive, got %d", config.Budget.MaxTokens)
	}
	if snapshots == nil {
		sp, ok := engine.(browser.SnapshotProvider)
		if !ok {
			return nil, errors.New("snapshot provider is required")
		}
		snapshots = sp
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.NewString()
	logger = logger.With(
		zap.String("component", "session"),
		zap.String("session_id", id),
	)

	var counter *tokenizer.AsyncCounter
	var countingCounter tokenizer.Counter
	if config.TokenWorkers > 0 {
		counter = tokenizer.NewAsyncCounter(tok, config.TokenWorkers)
		countingCounter = counter
	}

	return &Manager{
		id:        id,
		config:    config,
		engine:    engine,
		snapshots: snapshots,
		history:   NewHistory(),
		composer:  NewComposer(config.Budget, tok, countingCounter, logger),
		counter:   counter,
		logger:    logger,
	}, nil
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(c *metrics.Collector) *Manager {
	m.metrics = c
	m.composer.WithMetrics(c)
	return m
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.id
}

// History returns the session's history log.
func (m *Manager) History() *History {
	return m.history
}

// ExecuteAction runs one action-execution cycle: act on the engine, record
// the result in history, fetch fresh page state, and compose the
// budget-compliant observation. Every failure mode yields a returnable
// Outcome; nothing escapes to terminate the agent loop.
func (m *Manager) ExecuteAction(ctx context.Context, action browser.Action) Outcome {
	start := time.Now()
	name := action.Name()
	desc := action.Describe()

	if m.closed.Load() {
		return m.recordException(name, desc, ErrClosed, start)
	}

	res, err := m.engine.Act(ctx, action)
	if err != nil {
		return m.recordException(name, desc, err, start)
	}

	var resultText string
	var engineErr string
	status := "ok"
	if res.Err != "" {
		engineErr = res.Err
		resultText = "Error: " + res.Err
		status = "error"
	} else if res.ExtractedContent != "" {
		resultText = res.ExtractedContent
	} else {
		resultText = action.Fallback()
	}

	// Recorded regardless of success: failures feed the agent's next
	// reasoning step rather than vanishing.
	seq := m.history.Append(desc, resultText)
	m.metrics.SetHistoryLen(m.history.Len())

	var composed string
	var composeErr error
	if _, terminal := action.(browser.Done); terminal {
		composed, composeErr = m.composer.ComposeFinal(ctx, m.history.Render(), resultText)
	} else {
		pageState, snapErr := m.snapshots.Snapshot(ctx)
		if snapErr != nil {
			return m.recordException(name, desc, snapErr, start)
		}
		composed, composeErr = m.composer.Compose(ctx, m.history.Render(), resultText, pageState)
	}

	overBudget := false
	if composeErr != nil {
		if !errors.Is(composeErr, ErrOverBudget) {
			return m.recordException(name, desc, composeErr, start)
		}
		overBudget = true
	}

	m.metrics.ObserveAction(name, status, time.Since(start))
	m.logger.Debug("action executed",
		zap.String("action", name),
		zap.Int("seq", seq),
		zap.String("status", status),
		zap.Bool("over_budget", overBudget))

	return Outcome{
		Text:       composed,
		Seq:        seq,
		EngineErr:  engineErr,
		OverBudget: overBudget,
	}
}

// recordException converts an unexpected collaborator failure into
// observable text, records it like a normal result, and returns it.
func (m *Manager) recordException(name, desc string, err error, start time.Time) Outcome {
	text := fmt.Sprintf("Exception in %s: %v", name, err)
	seq := m.history.Append(desc, text)
	m.metrics.SetHistoryLen(m.history.Len())
	m.metrics.ObserveAction(name, "exception", time.Since(start))

	m.logger.Warn("action raised exception",
		zap.String("action", name),
		zap.Int("seq", seq),
		zap.Error(err))

	return Outcome{
		Text:      text,
		Seq:       seq,
		Exception: err,
	}
}

// Close releases the session's resources: the engine's browsing context
// and the token-counting worker pool. Idempotent; the caller owns the
// decision of when to tear down.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.counter != nil {
		m.counter.Close()
	}
	err := m.engine.Close()
	m.logger.Info("session closed", zap.Int("history_entries", m.history.Len()))
	return err
}
