package jitter

import (
	"github.com/samber/lo"
)

// lateThreshold is the number of late playouts that triggers a new
// adaptive delay estimate.
const lateThreshold = 3

// estimator tracks clock offset, skew and jitter of one stream. All values
// are in stream clock ticks.
type estimator struct {
	offset    uint32
	offsetSet bool

	activeDelay   uint32
	delayEstimate uint32
	delaySet      bool
	skew          uint32

	lastTransit uint32
	transitSet  bool
	jitter      uint32 // scaled by 16
	latePkts    uint16

	jitterOffset uint32
}

func (e *estimator) reset() {
	*e = estimator{}
}

// playoutTime computes the playout instant of s, which is already linked
// after prev. adapted reports whether the adaptive offset was recomputed.
func (e *estimator) playoutTime(prev, s *slot, mode Mode, pc *playoutClock, minMs, maxMs uint32) (playout uint32, adapted bool) {
	// fragments of one frame share the sender timestamp and play together
	if prev != nil && prev.hdr.Timestamp == s.hdr.Timestamp {
		return prev.playoutTime, false
	}

	transit := s.hdr.Arrival - s.hdr.Timestamp
	if !e.offsetSet {
		e.offset = transit
		e.offsetSet = true
	} else {
		e.offset = offsetMin(e.offset, transit)
	}

	base := s.hdr.Timestamp + e.offset

	var off uint32
	if mode == Adaptive {
		e.calcSkew(transit)
		off, adapted = e.adjust(transit)
	}

	off = lo.Clamp(off, pc.msToTicks(minMs), pc.msToTicks(maxMs))

	return base + off, adapted
}

// calcSkew follows the slow EWMA of the transit delay against the first
// observed delay. Only a growing delay, the estimate drifting above the
// anchor, feeds the adaptive offset.
func (e *estimator) calcSkew(delay uint32) {
	if !e.delaySet {
		e.activeDelay = delay
		e.delayEstimate = delay
		e.delaySet = true
		return
	}

	e.delayEstimate = uint32((31*uint64(e.delayEstimate) + uint64(delay)) / 32)

	diff := int32(e.activeDelay - e.delayEstimate)
	if diff >= 0 {
		// TODO: compensate positive media clock drift as well
		e.skew = 0
		return
	}
	e.skew = uint32(-diff)
}

// adjust updates the RFC 3550 interarrival jitter and returns the current
// adaptive offset.
func (e *estimator) adjust(transit uint32) (uint32, bool) {
	if !e.transitSet {
		e.lastTransit = transit
		e.transitSet = true
		return 0, false
	}

	d := int32(transit - e.lastTransit)
	if d < 0 {
		d = -d
	}

	e.jitter += uint32(d) - ((e.jitter + 8) >> 4)

	adapted := false
	if e.latePkts >= lateThreshold {
		e.latePkts = 0
		e.jitterOffset = 2*e.skew + 3*e.jitterTicks()
		adapted = true
	}

	e.lastTransit = transit

	return e.jitterOffset, adapted
}

func (e *estimator) jitterTicks() uint32 {
	return e.jitter >> 4
}

func (e *estimator) late() {
	e.latePkts++
}
