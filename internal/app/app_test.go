package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/adapter/usecase"
	"adpilot/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWithMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Tools.Tools(), 27)
	assert.Contains(t, a.String(), "memory")
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.SharedLimiter = true
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer a.Close()
	assert.Contains(t, a.String(), "redis")
}

func TestSharedLimiterNeedsRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.SharedLimiter = true
	_, err := New(context.Background(), cfg, discard())
	assert.ErrorContains(t, err, "REDIS_ENABLED")
}

func TestNewLoadsRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: costly_clicks
    target: zone
    action: blacklist
    when:
      - {field: cpc, op: ">", value: 0.5}
`), 0o600))
	cfg := testConfig(t)
	cfg.Optimizer.RulesFile = path

	a, err := New(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Tools.Call(context.Background(), "list_rules", nil)
	require.NoError(t, err)
	rules := res.([]usecase.RuleInfo)
	last := rules[len(rules)-1]
	assert.Equal(t, "costly_clicks", last.Name)
	assert.True(t, last.Custom)
}

func TestNewRejectsBrokenRulesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Optimizer.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, discard())
	assert.Error(t, err)
}

func TestDefaultsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Optimizer.MinSpend = 25
	cfg.Optimizer.WindowDays = 14

	d := Defaults(cfg)
	assert.Equal(t, 25.0, d.MinSpend)
	assert.Equal(t, 14, d.WindowDays)
	assert.Equal(t, cfg.Optimizer.ScaleBudgetStep, d.ScaleBudgetStep)
}
