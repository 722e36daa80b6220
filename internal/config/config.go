package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Upload     UploadConfig     `yaml:"upload" mapstructure:"upload"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Schema     SchemaConfig     `yaml:"schema" mapstructure:"schema"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ClassifierConfig configures the classification service client.
type ClassifierConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryInitialMS   int     `yaml:"retry_initial_ms" mapstructure:"retry_initial_ms"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout is TimeoutSecs as a duration.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// UploadConfig configures upload acceptance.
type UploadConfig struct {
	MaxBytes   int64    `yaml:"max_bytes" mapstructure:"max_bytes"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// EngineConfig holds the tunable thresholds of the metrics engine.
type EngineConfig struct {
	ExcellentOverall float64   `yaml:"excellent_overall" mapstructure:"excellent_overall"`
	GoodOverall      float64   `yaml:"good_overall" mapstructure:"good_overall"`
	FairRequired     float64   `yaml:"fair_required" mapstructure:"fair_required"`
	FieldGood        float64   `yaml:"field_good" mapstructure:"field_good"`
	FieldFair        float64   `yaml:"field_fair" mapstructure:"field_fair"`
	TopN             int       `yaml:"top_n" mapstructure:"top_n"`
	LowStockRatio    float64   `yaml:"low_stock_ratio" mapstructure:"low_stock_ratio"`
	CoverageRatio    float64   `yaml:"coverage_ratio" mapstructure:"coverage_ratio"`
	CostBounds       []float64 `yaml:"cost_bounds" mapstructure:"cost_bounds"`
}

// SchemaConfig points at an optional schema override file.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the snapshot database. Driver "none" disables it.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Enabled reports whether a store is configured.
func (s StoreConfig) Enabled() bool {
	return s.Driver != "" && s.Driver != "none"
}

// MonitoringConfig configures upload health alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("classifier.base_url", "http://localhost:5000")
	v.SetDefault("classifier.timeout_secs", 120)
	v.SetDefault("classifier.rate_per_sec", 2.0)
	v.SetDefault("classifier.burst", 1)
	v.SetDefault("classifier.retry_attempts", 3)
	v.SetDefault("classifier.retry_initial_ms", 500)
	v.SetDefault("classifier.breaker_threshold", 5)
	v.SetDefault("classifier.breaker_reset_secs", 30)
	v.SetDefault("upload.max_bytes", 20<<20)
	v.SetDefault("upload.extensions", []string{".xlsx", ".xls", ".csv"})
	v.SetDefault("engine.excellent_overall", 90.0)
	v.SetDefault("engine.good_overall", 75.0)
	v.SetDefault("engine.fair_required", 95.0)
	v.SetDefault("engine.field_good", 90.0)
	v.SetDefault("engine.field_fair", 75.0)
	v.SetDefault("engine.top_n", 10)
	v.SetDefault("engine.low_stock_ratio", 0.05)
	v.SetDefault("engine.coverage_ratio", 0.9)
	v.SetDefault("engine.cost_bounds", []float64{0, 100, 500, 1000, 5000, 10000})
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the given command needs: "serve",
// "classify" or "uploads". Other modes only get the engine checks.
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Engine.TopN <= 0 {
		add("engine.top_n must be positive")
	}
	for i := 1; i < len(c.Engine.CostBounds); i++ {
		if c.Engine.CostBounds[i] <= c.Engine.CostBounds[i-1] {
			add("engine.cost_bounds must be ascending")
			break
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port %d is out of range", c.Server.Port)
		}
		if c.Classifier.BaseURL == "" {
			add("classifier.base_url is required")
		}
	case "classify":
		if c.Classifier.BaseURL == "" {
			add("classifier.base_url is required")
		}
	case "uploads":
		if !c.Store.Enabled() {
			add("store.driver is required")
		}
	}
	if c.Store.Enabled() {
		switch c.Store.Driver {
		case "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				add("store.database_url is required for postgres")
			}
		default:
			add("store.driver %q is not supported", c.Store.Driver)
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
