package browser

import (
	"context"
	"time"
)

// Result is the engine's report for one action. Err carries non-exceptional
// failures (e.g. an invalid element index) as text; exceptional failures are
// returned as Go errors from Act instead.
type Result struct {
	Err              string
	ExtractedContent string
}

// Engine executes actions against a live browsing context.
type Engine interface {
	// Act runs a single action. A non-nil error means the engine itself
	// failed (connectivity loss, crashed tab); semantic failures are
	// reported through Result.Err.
	Act(ctx context.Context, action Action) (*Result, error)

	// Close releases the browsing context. It must be idempotent.
	Close() error
}

// SnapshotProvider renders the interactive elements of the current page as
// text. Each element is tagged with a stable numeric index usable as an
// argument to click/input actions.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (string, error)
}

// Config configures a browsing context.
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent,omitempty"`
	ProxyURL       string        `yaml:"proxy_url" json:"proxy_url,omitempty"`

	// SnapshotMaxChars caps the rendered snapshot text; longer snapshots
	// are cut and suffixed with "...(truncated)". Zero means the default.
	SnapshotMaxChars int `yaml:"snapshot_max_chars" json:"snapshot_max_chars"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:         true,
		Timeout:          30 * time.Second,
		ViewportWidth:    1920,
		ViewportHeight:   1080,
		SnapshotMaxChars: 3000,
	}
}
