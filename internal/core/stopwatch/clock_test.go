package stopwatch

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// countingClock is a fake clock that tracks how many of its tickers are live.
type countingClock struct {
	*clockwork.FakeClock

	mu      sync.Mutex
	live    int
	created int
}

func newCountingClock(start time.Time) *countingClock {
	return &countingClock{FakeClock: clockwork.NewFakeClockAt(start)}
}

func (clock *countingClock) NewTicker(interval time.Duration) clockwork.Ticker {
	ticker := clock.FakeClock.NewTicker(interval)
	clock.mu.Lock()
	clock.live++
	clock.created++
	clock.mu.Unlock()
	return &countedTicker{Ticker: ticker, clock: clock}
}

func (clock *countingClock) activeTickers() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.live
}

func (clock *countingClock) createdTickers() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.created
}

// advanceTo moves the clock to an absolute epoch millisecond.
func (clock *countingClock) advanceTo(ms int64) {
	clock.Advance(time.UnixMilli(ms).Sub(clock.Now()))
}

type countedTicker struct {
	clockwork.Ticker
	clock *countingClock
	once  sync.Once
}

func (ticker *countedTicker) Stop() {
	ticker.Ticker.Stop()
	ticker.once.Do(func() {
		ticker.clock.mu.Lock()
		ticker.clock.live--
		ticker.clock.mu.Unlock()
	})
}
