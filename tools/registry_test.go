package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func echoTool(_ context.Context, args json.RawMessage) (string, error) {
	return string(args), nil
}

func TestRegisterAndDispatch(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(echoTool, Metadata{
		Schema: Schema{Name: "echo", Description: "echoes arguments"},
	}))

	assert.True(t, r.Has("echo"))
	assert.False(t, r.Has("missing"))

	out, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestRegisterRejectsUnnamedAndDuplicates(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	assert.Error(t, r.Register(echoTool, Metadata{}))

	require.NoError(t, r.Register(echoTool, Metadata{Schema: Schema{Name: "dup"}}))
	assert.Error(t, r.Register(echoTool, Metadata{Schema: Schema{Name: "dup"}}))
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	_, err := r.Dispatch(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDispatchRateLimited(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(echoTool, Metadata{
		Schema: Schema{Name: "limited"},
		Rate:   &RateConfig{PerSecond: 0.001, Burst: 2},
	}))

	_, err := r.Dispatch(context.Background(), "limited", nil)
	require.NoError(t, err)
	_, err = r.Dispatch(context.Background(), "limited", nil)
	require.NoError(t, err)

	// Burst exhausted and the refill rate is negligible.
	_, err = r.Dispatch(context.Background(), "limited", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestSchemas(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(echoTool, Metadata{Schema: Schema{Name: "one"}}))
	require.NoError(t, r.Register(echoTool, Metadata{Schema: Schema{Name: "two"}}))

	schemas := r.Schemas()
	require.Len(t, schemas, 2)
	names := []string{schemas[0].Name, schemas[1].Name}
	assert.ElementsMatch(t, []string{"one", "two"}, names)
}
