package jitter

import (
	"testing"
	"time"

	"github.com/huandu/go-assert"
)

func Test_skewNegativeOnly(t *testing.T) {
	var e estimator

	e.calcSkew(1000)
	assert.Equal(t, e.activeDelay, uint32(1000))
	assert.Equal(t, e.skew, uint32(0))

	e.calcSkew(2000) // estimate 1031
	assert.Equal(t, e.delayEstimate, uint32(1031))
	assert.Equal(t, e.skew, uint32(31))

	e.reset()
	e.calcSkew(1000)
	e.calcSkew(0) // estimate 968 falls below the anchor, no skew
	assert.Equal(t, e.delayEstimate, uint32(968))
	assert.Equal(t, e.skew, uint32(0))
}

func Test_adjustThreshold(t *testing.T) {
	var e estimator

	off, adapted := e.adjust(100)
	assert.Equal(t, off, uint32(0))
	assert.Equal(t, adapted, false)

	off, adapted = e.adjust(116)
	assert.Equal(t, e.jitter, uint32(16))
	assert.Equal(t, e.jitterTicks(), uint32(1))
	assert.Equal(t, off, uint32(0))
	assert.Equal(t, adapted, false)

	e.skew = 10
	e.late()
	e.late()
	off, _ = e.adjust(116)
	assert.Equal(t, off, uint32(0))

	e.late()
	off, adapted = e.adjust(116)
	assert.Equal(t, adapted, true)
	assert.Equal(t, off, 2*uint32(10)+3*e.jitterTicks())
	assert.Equal(t, e.latePkts, uint16(0))
}

// late packets of a jittery stream; the fourth one triggers adaptation.
var jitteryStream = []Header{
	{Seq: 1, Timestamp: 0, Arrival: 7000},
	{Seq: 2, Timestamp: 160, Arrival: 7500},
	{Seq: 3, Timestamp: 320, Arrival: 7400},
	{Seq: 4, Timestamp: 480, Arrival: 8000},
}

func playoutTimes(b *Buffer) []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res []uint32
	b.list.each(func(s *slot) bool {
		res = append(res, s.playoutTime)
		return true
	})
	return res
}

func Test_adaptive(t *testing.T) {
	l := &recordingListener{}
	b, _ := newBuffer(t, 0, 100, 8, WithMode(Adaptive), WithListener(l))

	for _, h := range jitteryStream {
		put(t, b, h)
	}

	assert.Equal(t, playoutTimes(b), []uint32{7000, 7160, 7320, 7717})
	assert.Equal(t, b.est.skew, uint32(27))
	assert.Equal(t, b.est.jitterTicks(), uint32(61))
	assert.Equal(t, b.est.jitterOffset, uint32(237))
	assert.Equal(t, l.delays, []int32{29})

	withStats(t, b, func(s Stats) {
		assert.Equal(t, s.LatePlayouts, uint32(4))
		assert.Equal(t, s.PeakLatenessMs, int64(125))
	})
}

func Test_adaptiveClampedToMax(t *testing.T) {
	b, _ := newBuffer(t, 0, 10, 8, WithMode(Adaptive))

	for _, h := range jitteryStream {
		put(t, b, h)
	}

	assert.Equal(t, playoutTimes(b), []uint32{7000, 7160, 7320, 7560})
}

func Test_fixedIgnoresJitter(t *testing.T) {
	l := &recordingListener{}
	b, _ := newBuffer(t, 0, 100, 8, WithListener(l))

	for _, h := range jitteryStream {
		put(t, b, h)
	}

	assert.Equal(t, playoutTimes(b), []uint32{7000, 7160, 7320, 7480})
	assert.Equal(t, len(l.delays), 0)
}

func Test_clockOffsetFollowsMinimum(t *testing.T) {
	b, _ := newBuffer(t, 0, 0, 8)

	put(t, b, Header{Seq: 1, Timestamp: 100, Arrival: 9000})
	put(t, b, Header{Seq: 2, Timestamp: 260, Arrival: 8260})
	put(t, b, Header{Seq: 3, Timestamp: 420, Arrival: 9420})

	assert.Equal(t, b.est.offset, uint32(8000))
	assert.Equal(t, playoutTimes(b), []uint32{9000, 8260, 8420})
}

func Test_flushResetsEstimator(t *testing.T) {
	b, _ := newBuffer(t, 0, 100, 8, WithMode(Adaptive))

	for _, h := range jitteryStream {
		put(t, b, h)
	}
	b.Flush()

	assert.Equal(t, b.est, estimator{})
	assert.Equal(t, b.late.len(), 0)
}

func Test_latenessWindow(t *testing.T) {
	w := newLatenessWindow((2 * time.Second).Milliseconds())

	w.add(1000, 40)
	w.add(1000, 10)
	w.add(1500, 25)
	assert.Equal(t, w.len(), 2)
	assert.Equal(t, w.peak(1500), int64(40))

	assert.Equal(t, w.peak(3200), int64(25))
	assert.Equal(t, w.len(), 1)

	assert.Equal(t, w.peak(4000), int64(0))
	assert.Equal(t, w.len(), 0)
}
