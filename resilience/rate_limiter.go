package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/kbukum/evtsrc/errors"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Name identifies this limiter in errors and callbacks.
	Name string `yaml:"-" mapstructure:"-"`
	// Rate is the number of tokens added per second. Zero or less disables limiting.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket size. Defaults to Rate rounded up, at least 1.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// OnLimit is called when a request is refused.
	OnLimit func(name string) `yaml:"-" mapstructure:"-"`
}

// RateLimiter implements a token bucket rate limiter.
type RateLimiter struct {
	config RateLimiterConfig
	clock  clock.Clock

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter driven by clk. A nil clk uses the wall clock.
func NewRateLimiter(config RateLimiterConfig, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.WallClock
	}
	if config.Rate > 0 && config.Burst <= 0 {
		config.Burst = int(config.Rate)
		if float64(config.Burst) < config.Rate {
			config.Burst++
		}
	}

	return &RateLimiter{
		config:     config,
		clock:      clk,
		tokens:     float64(config.Burst),
		lastRefill: clk.Now(),
	}
}

// Enabled reports whether the limiter refuses anything at all.
func (rl *RateLimiter) Enabled() bool {
	return rl.config.Rate > 0
}

// Allow takes one token without blocking.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n tokens without blocking.
func (rl *RateLimiter) AllowN(n int) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}

	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if !rl.Enabled() {
		return nil
	}

	wait := rl.reserve()
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		rl.unreserve()
		return ctx.Err()
	case <-rl.clock.After(wait):
		return nil
	}
}

// Execute runs fn if a token is available, otherwise returns a RateLimited error.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return errors.RateLimited(rl.config.Name)
	}
	return fn()
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// Name returns the limiter's name.
func (rl *RateLimiter) Name() string {
	return rl.config.Name
}

// Rate returns tokens added per second.
func (rl *RateLimiter) Rate() float64 {
	return rl.config.Rate
}

// Burst returns the bucket size.
func (rl *RateLimiter) Burst() int {
	return rl.config.Burst
}

// refill must be called with rl.mu held.
func (rl *RateLimiter) refill() {
	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// reserve takes a token, possibly going into debt, and returns how long
// the caller must wait for it.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	rl.tokens--
	if rl.tokens >= 0 {
		return 0
	}
	return time.Duration(-rl.tokens / rl.config.Rate * float64(time.Second))
}

func (rl *RateLimiter) unreserve() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens++
}
