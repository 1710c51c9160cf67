package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/bingohall/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Tickers only fire when the test calls Advance or Fire.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	tickers     []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// NewTicker creates a ticker driven by Advance
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		Period: d,
		next:   c.CurrentTime.Add(d),
		ch:     make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing every
// active ticker whose period elapsed. A ticker fires at most once per call.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	now := c.CurrentTime
	tickers := append([]*MockTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		if t.due(now) {
			t.fire(now)
		}
	}
}

// Set sets the clock to the given time without firing tickers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}

// Tickers returns every ticker created so far, stopped or not
func (c *MockClock) Tickers() []*MockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockTicker(nil), c.tickers...)
}

// ActiveTickers returns the tickers with the given period that are not stopped
func (c *MockClock) ActiveTickers(period time.Duration) []*MockTicker {
	var result []*MockTicker
	for _, t := range c.Tickers() {
		if t.Period == period && !t.Stopped() {
			result = append(result, t)
		}
	}
	return result
}

// MockTicker is a ticker controlled by MockClock
type MockTicker struct {
	Period time.Duration

	mu      sync.Mutex
	next    time.Time
	stopped bool
	fired   int
	ch      chan time.Time
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop prevents any further ticks
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop was called
func (t *MockTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fired returns how many ticks were delivered
func (t *MockTicker) Fired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Fire delivers a tick immediately unless the ticker is stopped.
// Like time.Ticker, a tick is dropped if the previous one was not consumed.
func (t *MockTicker) Fire(now time.Time) {
	t.fire(now)
}

func (t *MockTicker) due(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !now.Before(t.next)
}

func (t *MockTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	for !now.Before(t.next) {
		t.next = t.next.Add(t.Period)
	}
	select {
	case t.ch <- now:
		t.fired++
	default:
	}
}
