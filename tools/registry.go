package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Func is the tool function signature. The returned string is the
// observation handed back to the agent.
type Func func(ctx context.Context, args json.RawMessage) (string, error)

// Schema describes a tool to the language model.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Metadata carries per-tool configuration.
type Metadata struct {
	Schema Schema

	// Rate limits invocations of this tool; nil means unlimited.
	Rate *RateConfig
}

// RateConfig bounds tool invocation frequency.
type RateConfig struct {
	PerSecond float64
	Burst     int
}

// Registry holds the registered tools and dispatches invocations.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Func
	metadata map[string]Metadata
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:    make(map[string]Func),
		metadata: make(map[string]Metadata),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool under its schema name.
func (r *Registry) Register(fn Func, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := meta.Schema.Name
	if name == "" {
		return fmt.Errorf("tool schema has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = fn
	r.metadata[name] = meta
	if meta.Rate != nil {
		r.limiters[name] = rate.NewLimiter(rate.Limit(meta.Rate.PerSecond), meta.Rate.Burst)
	}

	r.logger.Debug("tool registered", zap.String("name", name))
	return nil
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Schemas lists all tool schemas for the agent framework.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]Schema, 0, len(r.metadata))
	for _, meta := range r.metadata {
		schemas = append(schemas, meta.Schema)
	}
	return schemas
}

// Dispatch invokes a tool by name with raw JSON arguments.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (string, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	limiter := r.limiters[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("tool %s not found", name)
	}
	if limiter != nil && !limiter.Allow() {
		r.logger.Warn("tool rate limit exceeded", zap.String("name", name))
		return "", fmt.Errorf("rate limit exceeded for tool %s", name)
	}

	return fn(ctx, args)
}
