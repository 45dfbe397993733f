package jitter

import (
	"sync"
	"time"

	"github.com/livekit/protocol/utils/mono"
)

// Clock supplies monotonic elapsed time from an arbitrary origin. The buffer
// derives both its playout clock and the put timeout from it.
type Clock interface {
	Elapsed() time.Duration
}

type ClockFunc func() time.Duration

func (f ClockFunc) Elapsed() time.Duration {
	return f()
}

type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: mono.Now()}
}

func (c *WallClock) Elapsed() time.Duration {
	return mono.Now().Sub(c.start)
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *ManualClock) Set(d time.Duration) {
	c.mu.Lock()
	c.now = d
	c.mu.Unlock()
}

// playoutClock converts a Clock reading into the stream's clock ticks.
type playoutClock struct {
	clock Clock
	rate  uint32
}

func (p *playoutClock) millis() uint64 {
	return uint64(p.clock.Elapsed().Milliseconds())
}

func (p *playoutClock) ticks() uint32 {
	return uint32(p.millis() * uint64(p.rate/1000))
}

// Ticks reports the playout clock reading of c for a stream sampled at rate.
// Receive paths use it to stamp Header.Arrival.
func Ticks(c Clock, rate uint32) uint32 {
	return (&playoutClock{clock: c, rate: rate}).ticks()
}

func (p *playoutClock) msToTicks(ms uint32) uint32 {
	return (p.rate / 1000) * ms
}

func (p *playoutClock) ticksToMs(ticks int32) int32 {
	if p.rate == 0 {
		return 0
	}
	return int32(int64(ticks) * 1000 / int64(p.rate))
}
