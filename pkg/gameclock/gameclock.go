// Package gameclock provides the in-game clock: a periodic ticker that
// advances game time and broadcasts it to subscribers. Subscribers are an
// explicit ordered list with explicit unsubscribe; callbacks fire in
// subscription order on every tick.
package gameclock

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Time is a point in game time.
type Time struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Observer receives the game time on every tick.
type Observer func(Time)

// Subscription identifies a registered observer for Unsubscribe.
type Subscription uint64

// Config controls tick cadence and game-time scale.
type Config struct {
	// TickInterval is the real-time interval between broadcasts.
	TickInterval time.Duration
	// MinutesPerTick is how many game minutes pass per tick.
	MinutesPerTick int
}

// subscriber pairs an observer with its subscription id. Order in the
// slice is subscription order, which is the broadcast order.
type subscriber struct {
	id Subscription
	fn Observer
}

// Clock broadcasts game time on a fixed cadence. Create with New, start
// with Start, tear down with Stop.
type Clock struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	current Time
	subs    []subscriber
	nextID  Subscription
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped clock starting at day 0, 00:00.
func New(cfg Config, log *zap.Logger) *Clock {
	ctx, cancel := context.WithCancel(context.Background())
	return &Clock{
		cfg:    cfg,
		logger: log.With(zap.String("component", "game_clock")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins ticking. Starting a running clock is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()

	c.logger.Info("game clock started",
		zap.Duration("tick_interval", c.cfg.TickInterval),
		zap.Int("minutes_per_tick", c.cfg.MinutesPerTick))
}

// Stop cancels the ticker loop and waits for it to exit. Idempotent.
func (c *Clock) Stop() {
	c.cancel()
	c.wg.Wait()
}

// Subscribe registers an observer. Observers are invoked in subscription
// order on every tick.
func (c *Clock) Subscribe(fn Observer) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.subs = append(c.subs, subscriber{id: c.nextID, fn: fn})
	return c.nextID
}

// Unsubscribe removes an observer. Unknown subscriptions are a no-op.
func (c *Clock) Unsubscribe(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s.id == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// Now returns the current game time.
func (c *Clock) Now() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// run is the ticker loop.
func (c *Clock) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick()
		case <-c.ctx.Done():
			return
		}
	}
}

// Tick advances game time by one step and broadcasts it. Exposed so tests
// and turn-based callers can drive the clock manually.
func (c *Clock) Tick() {
	c.mu.Lock()
	c.current = advance(c.current, c.cfg.MinutesPerTick)
	now := c.current
	// Copy so a callback subscribing or unsubscribing cannot mutate the
	// list mid-broadcast.
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(now)
	}
}

// advance adds game minutes with hour/day carry.
func advance(t Time, minutes int) Time {
	t.Minute += minutes
	t.Hour += t.Minute / 60
	t.Minute %= 60
	t.Day += t.Hour / 24
	t.Hour %= 24
	return t
}
