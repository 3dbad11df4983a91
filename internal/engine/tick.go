package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Clock advances the game on a wall-clock interval for autoplay. Step is
// normally a closure that locks the owner's mutex and calls AdvanceDay.
type Clock struct {
	Interval time.Duration // Base time between days

	Step func() (DayReport, error)

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running bool
	cancel  context.CancelFunc
}

// NewClock creates a clock that calls step once per interval.
func NewClock(interval time.Duration, step func() (DayReport, error)) *Clock {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Clock{Interval: interval, Step: step, speed: 1.0}
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the multiplier. Zero pauses the clock.
func (c *Clock) SetSpeed(v float64) {
	c.mu.Lock()
	c.speed = max(v, 0)
	c.mu.Unlock()
	slog.Info("autoplay speed changed", "speed", v)
}

// Running reports whether Run is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run advances days until ctx is done, Stop is called, or the game ends.
// A pending emergent event pauses advancement until it is resolved.
func (c *Clock) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	slog.Info("autoplay clock started", "interval", c.Interval, "speed", c.Speed())
	for {
		wait := c.wait()
		select {
		case <-ctx.Done():
			slog.Info("autoplay clock stopped")
			return
		case <-time.After(wait):
		}
		if c.Speed() <= 0 {
			continue
		}

		rep, err := c.Step()
		switch {
		case errors.Is(err, ErrAwaitingChoice):
			slog.Debug("autoplay waiting on emergent choice")
		case errors.Is(err, ErrGameOver):
			slog.Info("autoplay clock finished: game over")
			return
		case err != nil:
			slog.Error("autoplay step failed", "error", err)
		case rep.GameOver:
			slog.Info("autoplay clock finished: game over", "day", rep.Closed)
			return
		}
	}
}

// Stop halts Run.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Clock) wait() time.Duration {
	speed := c.Speed()
	if speed <= 0 {
		// Paused; check again shortly.
		return 100 * time.Millisecond
	}
	return time.Duration(float64(c.Interval) / speed)
}
