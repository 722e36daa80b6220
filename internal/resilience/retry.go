package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff controls retry timing.
type Backoff struct {
	// Attempts is the total number of tries, including the first.
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the ± fraction of each delay randomized.
	Jitter float64
}

// DefaultBackoff is 3 attempts starting at 500ms, doubling, capped at 10s.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Initial: 500 * time.Millisecond, Max: 10 * time.Second, Multiplier: 2, Jitter: 0.25}
}

func (b Backoff) normalized() Backoff {
	d := DefaultBackoff()
	if b.Attempts <= 0 {
		b.Attempts = d.Attempts
	}
	if b.Initial <= 0 {
		b.Initial = d.Initial
	}
	if b.Max <= 0 {
		b.Max = d.Max
	}
	if b.Multiplier < 1 {
		b.Multiplier = d.Multiplier
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	return b
}

// Delay returns the wait before retry number n (0-based).
func (b Backoff) Delay(n int) time.Duration {
	b = b.normalized()
	d := math.Min(float64(b.Initial)*math.Pow(b.Multiplier, float64(n)), float64(b.Max))
	if b.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * b.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

// Policy combines a breaker with retry. A nil Breaker disables it.
type Policy struct {
	Name    string
	Breaker *Breaker
	Backoff Backoff
}

// Call runs fn under p. Each attempt passes through the breaker; only
// transient errors are retried, and ErrOpen or a cancelled context stop
// immediately. The last error is returned unchanged.
func Call[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	bo := p.Backoff.normalized()

	var zero T
	var lastErr error
	for attempt := 0; attempt < bo.Attempts; attempt++ {
		val, err := guarded(ctx, p.Breaker, fn)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, ErrOpen) || !IsTransient(err) {
			return zero, lastErr
		}
		if attempt == bo.Attempts-1 {
			break
		}

		zap.L().Warn("retrying call",
			zap.String("service", p.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		timer := time.NewTimer(bo.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func guarded[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}
