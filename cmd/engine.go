package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/classifier"
	"github.com/sells-group/inventory-planner/internal/config"
	"github.com/sells-group/inventory-planner/internal/insight"
	"github.com/sells-group/inventory-planner/internal/intake"
	"github.com/sells-group/inventory-planner/internal/monitoring"
	"github.com/sells-group/inventory-planner/internal/quality"
	"github.com/sells-group/inventory-planner/internal/report"
	"github.com/sells-group/inventory-planner/internal/resilience"
	"github.com/sells-group/inventory-planner/internal/schema"
	"github.com/sells-group/inventory-planner/internal/store"
)

// reportOptions converts the engine section of c into builder options.
func reportOptions(c *config.Config) (report.Options, error) {
	reg, err := schema.Load(c.Schema.Path)
	if err != nil {
		return report.Options{}, err
	}
	e := c.Engine
	return report.Options{
		Registry: reg,
		Thresholds: quality.Thresholds{
			ExcellentOverall: e.ExcellentOverall,
			GoodOverall:      e.GoodOverall,
			FairRequired:     e.FairRequired,
			FieldGood:        e.FieldGood,
			FieldFair:        e.FieldFair,
		},
		Params: insight.Params{
			TopN:          e.TopN,
			LowStockRatio: e.LowStockRatio,
			CoverageRatio: e.CoverageRatio,
		},
		CostBounds: e.CostBounds,
	}, nil
}

func newBuilder(c *config.Config) (*report.Builder, error) {
	opts, err := reportOptions(c)
	if err != nil {
		return nil, err
	}
	return report.NewBuilder(opts), nil
}

func intakeRules(c *config.Config) intake.Rules {
	r := intake.DefaultRules()
	if c.Upload.MaxBytes > 0 {
		r.MaxBytes = c.Upload.MaxBytes
	}
	if len(c.Upload.Extensions) > 0 {
		r.Extensions = c.Upload.Extensions
	}
	return r
}

func newClassifier(c *config.Config, m *monitoring.Metrics) *classifier.Client {
	cc := c.Classifier
	backoff := resilience.DefaultBackoff()
	if cc.RetryAttempts > 0 {
		backoff.Attempts = cc.RetryAttempts
	}
	if cc.RetryInitialMS > 0 {
		backoff.Initial = time.Duration(cc.RetryInitialMS) * time.Millisecond
	}
	return classifier.New(classifier.Options{
		BaseURL:    cc.BaseURL,
		Timeout:    cc.Timeout(),
		RatePerSec: cc.RatePerSec,
		Burst:      cc.Burst,
		Backoff:    backoff,
		Breaker: resilience.BreakerOptions{
			Threshold: cc.BreakerThreshold,
			Cooldown:  time.Duration(cc.BreakerResetSecs) * time.Second,
			OnChange: func(_, to resilience.State) {
				m.SetBreakerOpen(to != resilience.Closed)
			},
		},
		Observe: m.ObserveClassifier,
	})
}

// initStore opens and migrates the configured snapshot store. It returns
// nil when no store is configured.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Store.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "planner.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	zap.L().Info("snapshot store ready", zap.String("driver", c.Store.Driver))
	return st, nil
}
