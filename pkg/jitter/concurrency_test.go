package jitter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huandu/go-assert"
)

func Test_concurrentPutGet(t *testing.T) {
	b, clock := newBuffer(t, 0, 20, 16, WithMode(Adaptive))

	const packets = 2000

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < packets; i++ {
			seq := uint16(60000 + i)
			// pairs arrive swapped
			if i%2 == 0 && i+1 < packets {
				seq++
			} else if i%2 == 1 {
				seq--
			}
			h := Header{
				Seq:       seq,
				Timestamp: uint32(seq) * samplesPerTick,
				Arrival:   Ticks(clock, sampleRate),
				SSRC:      1,
			}
			p := NewPayload([]byte{byte(seq)})
			err := b.Put(h, p)
			assert.Assert(t, err == nil || errors.Is(err, ErrLate) || errors.Is(err, ErrDuplicate))
			p.Release()
			clock.Advance(time.Millisecond)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < packets; i++ {
			f, err := b.Get()
			if err == nil {
				f.Payload.Release()
			} else {
				assert.Assert(t, errors.Is(err, ErrNotReady))
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < packets/10; i++ {
			_, _ = b.Stats()
			_, _ = b.NextPlayoutDelay()
			_ = b.Debug()
		}
	}()

	wg.Wait()
	assertInvariants(t, b)

	for {
		f, err := b.Drain()
		if err != nil {
			assert.Assert(t, errors.Is(err, ErrEmpty))
			break
		}
		f.Payload.Release()
	}
	assertInvariants(t, b)
	assert.Equal(t, b.Len(), 0)
}

func Test_randomOpsKeepInvariants(t *testing.T) {
	b, clock := newBuffer(t, 0, 40, 6, WithMode(Adaptive))

	// deterministic pseudo random walk over a window crossing the wrap
	state := uint32(7)
	next := func(n uint32) uint32 {
		state = state*1103515245 + 12345
		return (state >> 16) % n
	}

	for i := 0; i < 5000; i++ {
		switch next(10) {
		case 0:
			b.Flush()
		case 1, 2:
			if f, err := b.Drain(); err == nil {
				f.Payload.Release()
			}
		case 3, 4:
			if f, err := b.Get(); err == nil {
				f.Payload.Release()
			}
		default:
			seq := uint16(65500 + next(100))
			h := Header{
				Seq:       seq,
				Timestamp: uint32(seq) * samplesPerTick,
				Arrival:   Ticks(clock, sampleRate) + next(400),
			}
			p := NewPayload(nil)
			n := b.Len()
			err := b.Put(h, p)
			switch {
			case errors.Is(err, ErrDuplicate), errors.Is(err, ErrLate):
				assert.Equal(t, b.Len(), n)
			default:
				assert.Equal(t, err, nil)
			}
			p.Release()
		}
		clock.Advance(5 * time.Millisecond)
		assertInvariants(t, b)
	}
}
