// Package resilience guards calls to the classification service with a
// circuit breaker and transient-error retry.
package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a breaker state.
type State int

const (
	// Closed lets calls through and counts consecutive failures.
	Closed State = iota
	// Open rejects calls until the cooldown elapses.
	Open
	// HalfOpen lets one probe through; its outcome closes or reopens.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling through while the breaker is open.
var ErrOpen = eris.New("resilience: circuit open")

// BreakerOptions configure a Breaker.
type BreakerOptions struct {
	// Name labels log lines.
	Name string
	// Threshold is the consecutive failure count that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before a probe.
	Cooldown time.Duration
	// Trips decides whether an error counts as a failure. Defaults to
	// IsTransient, so rejected uploads do not open the breaker.
	Trips func(error) bool
	// OnChange observes state transitions.
	OnChange func(from, to State)
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	opts BreakerOptions

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker returns a closed breaker. Threshold defaults to 5 and Cooldown
// to 30s.
func NewBreaker(opts BreakerOptions) *Breaker {
	if opts.Threshold <= 0 {
		opts.Threshold = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 30 * time.Second
	}
	if opts.Trips == nil {
		opts.Trips = IsTransient
	}
	return &Breaker{opts: opts, now: time.Now}
}

// State reports the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.opts.Cooldown {
		return HalfOpen
	}
	return b.state
}

// Failures is the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// allow admits a call or returns ErrOpen. While half-open only one probe is
// in flight at a time.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.opts.Cooldown {
			return ErrOpen
		}
		b.setState(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil || !b.opts.Trips(err) {
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}

	b.failures++
	switch b.state {
	case HalfOpen:
		b.openedAt = b.now()
		b.setState(Open)
	case Closed:
		if b.failures >= b.opts.Threshold {
			b.openedAt = b.now()
			b.setState(Open)
		}
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	zap.L().Info("circuit breaker state change",
		zap.String("breaker", b.opts.Name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("failures", b.failures),
	)
	if b.opts.OnChange != nil {
		b.opts.OnChange(from, to)
	}
}
