// Package browserpilot provides a top-level convenience entry point for
// wiring a budget-aware browser tool surface with minimal boilerplate.
//
// Usage:
//
//	p, err := browserpilot.New()
//	p, err := browserpilot.New(browserpilot.WithConfig(cfg), browserpilot.WithLogger(logger))
//	defer p.Close()
//
//	schemas := p.Tools.Schemas()                   // hand to the agent framework
//	obs, err := p.Tools.Dispatch(ctx, name, args)  // per tool call
package browserpilot

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/browserpilot/browserpilot/browser"
	"github.com/browserpilot/browserpilot/config"
	"github.com/browserpilot/browserpilot/internal/metrics"
	"github.com/browserpilot/browserpilot/session"
	"github.com/browserpilot/browserpilot/tokenizer"
	"github.com/browserpilot/browserpilot/tools"
)

// Pilot bundles one browsing session: the engine, the history/budget
// manager, and the registered tool surface.
type Pilot struct {
	Manager *session.Manager
	Tools   *tools.Registry
	Engine  browser.Engine
}

type options struct {
	config     *config.Config
	logger     *zap.Logger
	engine     browser.Engine
	tok        tokenizer.Tokenizer
	registerer prometheus.Registerer
}

// Option configures the pilot created by [New].
type Option func(*options)

// WithConfig sets the full configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEngine injects a pre-built engine (e.g. a fake for tests) instead of
// launching Chrome.
func WithEngine(engine browser.Engine) Option {
	return func(o *options) { o.engine = engine }
}

// WithTokenizer overrides the tokenizer selected from the configured model.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(o *options) { o.tok = tok }
}

// WithMetrics enables Prometheus collection on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

var registerTokenizersOnce sync.Once

// New builds a ready-to-use Pilot: engine, session manager, and toolset.
// The caller owns teardown via [Pilot.Close].
func New(opts ...Option) (*Pilot, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tok := o.tok
	if tok == nil {
		registerTokenizersOnce.Do(tokenizer.RegisterOpenAITokenizers)
		// Unknown models fall back to the character-class estimator; the
		// composer then elides spans instead of trimming, since the
		// estimator cannot decode.
		tok = tokenizer.ForModelOrEstimator(cfg.Session.Model)
	}

	engine := o.engine
	if engine == nil {
		var err error
		engine, err = browser.NewChromeEngine(browser.Config{
			Headless:         cfg.Browser.Headless,
			Timeout:          cfg.Browser.Timeout,
			ViewportWidth:    cfg.Browser.ViewportWidth,
			ViewportHeight:   cfg.Browser.ViewportHeight,
			UserAgent:        cfg.Browser.UserAgent,
			ProxyURL:         cfg.Browser.ProxyURL,
			SnapshotMaxChars: cfg.Browser.SnapshotMaxChars,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create browser engine: %w", err)
		}
	}

	manager, err := session.NewManager(session.Config{
		Budget:       session.BudgetConfig{MaxTokens: cfg.Session.MaxTokens},
		TokenWorkers: cfg.Session.TokenWorkers,
	}, engine, nil, tok, logger)
	if err != nil {
		engine.Close()
		return nil, err
	}

	if o.registerer != nil {
		manager.WithMetrics(metrics.NewCollector(cfg.Metrics.Namespace, o.registerer))
	}

	toolsCfg := tools.Config{}
	if cfg.Tools.RatePerSecond > 0 {
		toolsCfg.Rate = &tools.RateConfig{
			PerSecond: cfg.Tools.RatePerSecond,
			Burst:     cfg.Tools.RateBurst,
		}
	}
	toolset, err := tools.NewToolset(manager, toolsCfg, logger)
	if err != nil {
		manager.Close()
		return nil, err
	}

	return &Pilot{
		Manager: manager,
		Tools:   toolset,
		Engine:  engine,
	}, nil
}

// Close releases the session and its browsing context. Idempotent.
func (p *Pilot) Close() error {
	return p.Manager.Close()
}
