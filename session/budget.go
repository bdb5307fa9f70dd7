package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/browserpilot/browserpilot/internal/metrics"
	"github.com/browserpilot/browserpilot/tokenizer"
)

// Separator introduces the page-state span in the composed context.
const Separator = "Current page clickable elements:\n"

// Sentinel replaces a span that had to be fully elided to satisfy the
// token budget.
const Sentinel = "[TRUNCATED DUE TO TOKEN LIMIT]"

// ErrOverBudget reports that even full elision of the result and
// page-state spans could not bring the composed context under budget:
// history and separator alone exceed MaxTokens. The composed string is
// still returned alongside it; history is never truncated.
var ErrOverBudget = errors.New("history and separator alone exceed token budget")

// BudgetConfig bounds the composed context size.
type BudgetConfig struct {
	// MaxTokens is the hard budget, measured by the session tokenizer.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultBudgetConfig returns sensible defaults.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{MaxTokens: 8192}
}

// Composer assembles the rendered history, the latest action result, and
// the current page state into a single context string that fits the token
// budget.
//
// Truncation order is fixed: the latest result is cut first, then the page
// state. History is the least disposable span and is never truncated;
// page state can always be re-fetched, the action trail cannot. Cuts
// always remove trailing tokens so that content near the beginning of a
// span survives.
type Composer struct {
	tok     tokenizer.Tokenizer
	counter tokenizer.Counter
	config  BudgetConfig
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewComposer creates a composer. A nil counter means counting runs on the
// caller's goroutine; pass a tokenizer.AsyncCounter to offload it.
func NewComposer(config BudgetConfig, tok tokenizer.Tokenizer, counter tokenizer.Counter, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if counter == nil {
		counter = tokenizer.Blocking{Tokenizer: tok}
	}
	return &Composer{
		tok:     tok,
		counter: counter,
		config:  config,
		logger:  logger.With(zap.String("component", "composer")),
	}
}

// WithMetrics attaches a metrics collector.
func (c *Composer) WithMetrics(m *metrics.Collector) *Composer {
	c.metrics = m
	return c
}

// Compose builds history + result + separator + pageState under the
// budget. When the budget cannot be satisfied even after eliding both
// truncatable spans, the composed string is returned together with
// ErrOverBudget.
func (c *Composer) Compose(ctx context.Context, history, result, pageState string) (string, error) {
	sepSpan := "\n" + Separator

	counts, err := c.countAll(ctx, history, result, pageState, sepSpan)
	if err != nil {
		return "", err
	}
	histTokens, resTokens, pageTokens, sepTokens := counts[0], counts[1], counts[2], counts[3]

	total := histTokens + resTokens + pageTokens + sepTokens
	if total <= c.config.MaxTokens {
		c.metrics.ObserveContext(total)
		return history + result + sepSpan + pageState, nil
	}

	excess := total - c.config.MaxTokens
	c.logger.Debug("context over budget",
		zap.Int("total", total),
		zap.Int("max_tokens", c.config.MaxTokens),
		zap.Int("excess", excess))

	result, excess = c.fit(result, resTokens, excess, "result")
	if excess > 0 {
		pageState, excess = c.fit(pageState, pageTokens, excess, "page_state")
	}

	composed := history + result + sepSpan + pageState
	c.metrics.ObserveContext(c.config.MaxTokens + excess)

	if excess > 0 {
		c.metrics.ObserveOverBudget()
		c.logger.Warn("budget unsatisfiable, history alone exceeds limit",
			zap.Int("history_tokens", histTokens),
			zap.Int("max_tokens", c.config.MaxTokens))
		return composed, ErrOverBudget
	}
	return composed, nil
}

// ComposeFinal builds history + result without a page-state span, used for
// the terminal "done" action.
func (c *Composer) ComposeFinal(ctx context.Context, history, result string) (string, error) {
	counts, err := c.countAll(ctx, history, result)
	if err != nil {
		return "", err
	}
	histTokens, resTokens := counts[0], counts[1]

	total := histTokens + resTokens
	if total <= c.config.MaxTokens {
		c.metrics.ObserveContext(total)
		return history + result, nil
	}

	excess := total - c.config.MaxTokens
	result, excess = c.fit(result, resTokens, excess, "result")

	composed := history + result
	if excess > 0 {
		c.metrics.ObserveOverBudget()
		return composed, ErrOverBudget
	}
	c.metrics.ObserveContext(c.config.MaxTokens)
	return composed, nil
}

// countAll measures the given spans, fanning the work out through the
// counter so CPU-bound tokenization of large spans can run off-path.
func (c *Composer) countAll(ctx context.Context, spans ...string) ([]int, error) {
	counts := make([]int, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	for i, span := range spans {
		i, span := i, span
		g.Go(func() error {
			n, err := c.counter.Count(gctx, span)
			if err != nil {
				return fmt.Errorf("count tokens: %w", err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// fit brings one span within the remaining excess. If the span has more
// tokens than the excess, exactly excess trailing tokens are dropped and
// the remainder decoded; otherwise the whole span is replaced by the
// sentinel and its token count is credited against the excess.
func (c *Composer) fit(span string, spanTokens, excess int, label string) (string, int) {
	if spanTokens > excess {
		trimmed, err := c.trimTail(span, excess)
		if err != nil {
			// Tokenizer cannot round-trip this span (e.g. the estimator);
			// eliding it entirely keeps the budget invariant intact.
			c.logger.Warn("trim failed, eliding span",
				zap.String("span", label), zap.Error(err))
			c.metrics.ObserveTruncation(label, "elide")
			return Sentinel, max(0, excess-spanTokens)
		}
		c.metrics.ObserveTruncation(label, "trim")
		return trimmed, 0
	}

	c.metrics.ObserveTruncation(label, "elide")
	return Sentinel, excess - spanTokens
}

// trimTail drops exactly n trailing tokens from the span and decodes the
// remaining prefix.
func (c *Composer) trimTail(span string, n int) (string, error) {
	tokens, err := c.tok.Encode(span)
	if err != nil {
		return "", err
	}
	if n >= len(tokens) {
		return "", nil
	}
	return c.tok.Decode(tokens[:len(tokens)-n])
}
