// Command browserpilot runs a scripted browsing session against a live
// browser and prints each budget-compliant observation. The LLM planning
// loop is supplied by the hosting agent runtime; this binary demonstrates
// the tool surface it would call.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/browserpilot/browserpilot"
	"github.com/browserpilot/browserpilot/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	startURL := flag.String("url", "https://example.com", "URL to open")
	flag.Parse()

	cfg, err := config.NewLoader().
		WithConfigPath(*configPath).
		WithEnvPrefix("BROWSERPILOT").
		Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []browserpilot.Option{
		browserpilot.WithConfig(cfg),
		browserpilot.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, browserpilot.WithMetrics(reg))
		go serveMetrics(cfg.Metrics.Addr, reg, logger)
	}

	pilot, err := browserpilot.New(opts...)
	if err != nil {
		return err
	}
	// Resources are released on every exit path, normal or error.
	defer pilot.Close()

	// A scripted stand-in for the agent's tool calls.
	script := []struct {
		tool string
		args string
	}{
		{"go_to_url", fmt.Sprintf(`{"url":%q}`, *startURL)},
		{"scroll_down", `{}`},
		{"extract_content", `{"value":"text"}`},
		{"done", `{"text":"Visited the page and extracted its content."}`},
	}

	for _, step := range script {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		obs, err := pilot.Tools.Dispatch(ctx, step.tool, json.RawMessage(step.args))
		if err != nil {
			return fmt.Errorf("dispatch %s: %w", step.tool, err)
		}
		fmt.Printf("--- %s ---\n%s\n\n", step.tool, obs)
	}

	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
