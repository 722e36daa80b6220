package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:5000", cfg.Classifier.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Classifier.Timeout())
	assert.Equal(t, 3, cfg.Classifier.RetryAttempts)
	assert.Equal(t, 5, cfg.Classifier.BreakerThreshold)
	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{".xlsx", ".xls", ".csv"}, cfg.Upload.Extensions)
	assert.InDelta(t, 90, cfg.Engine.ExcellentOverall, 0.001)
	assert.InDelta(t, 75, cfg.Engine.GoodOverall, 0.001)
	assert.InDelta(t, 95, cfg.Engine.FairRequired, 0.001)
	assert.Equal(t, 10, cfg.Engine.TopN)
	assert.InDelta(t, 0.05, cfg.Engine.LowStockRatio, 0.0001)
	assert.InDelta(t, 0.9, cfg.Engine.CoverageRatio, 0.0001)
	assert.Equal(t, []float64{0, 100, 500, 1000, 5000, 10000}, cfg.Engine.CostBounds)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.False(t, cfg.Store.Enabled())
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: planner.db
log:
  level: debug
  format: console
engine:
  top_n: 5
  cost_bounds: [0, 50, 250]
schema:
  path: schemas.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.True(t, cfg.Store.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Engine.TopN)
	assert.Equal(t, []float64{0, 50, 250}, cfg.Engine.CostBounds)
	assert.Equal(t, "schemas.yaml", cfg.Schema.Path)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.05, cfg.Engine.LowStockRatio, 0.0001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PLANNER_STORE_DRIVER", "postgres")
	t.Setenv("PLANNER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PLANNER_SERVER_PORT", "3000")
	t.Setenv("PLANNER_CLASSIFIER_BASE_URL", "http://classifier:5000")
	t.Setenv("PLANNER_ENGINE_TOP_N", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://classifier:5000", cfg.Classifier.BaseURL)
	assert.Equal(t, 25, cfg.Engine.TopN)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Classifier.BaseURL = "http://localhost:5000"
	cfg.Engine.TopN = 10
	cfg.Engine.CostBounds = []float64{0, 100, 500}
	cfg.Store.Driver = "none"
	return cfg
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	cfg.Classifier.BaseURL = ""
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port 0 is out of range")
	assert.Contains(t, err.Error(), "classifier.base_url is required")
}

func TestValidateEngine(t *testing.T) {
	cfg := validDefaults()
	cfg.Engine.TopN = 0
	cfg.Engine.CostBounds = []float64{0, 500, 100}

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.top_n must be positive")
	assert.Contains(t, err.Error(), "engine.cost_bounds must be ascending")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("uploads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is required")

	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("uploads"))

	cfg.Store.Driver = "postgres"
	assert.Contains(t, cfg.Validate("uploads").Error(), "store.database_url is required")

	cfg.Store.Driver = "mysql"
	assert.Contains(t, cfg.Validate("analyze").Error(), `store.driver "mysql" is not supported`)
}
