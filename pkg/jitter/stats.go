package jitter

import (
	"fmt"
	"strings"
)

type Stats struct {
	Puts         uint32 // packets accepted or detected as duplicate
	Gets         uint32 // Get calls
	OutOfOrder   uint32 // insertions not at the tail
	Duplicates   uint32
	Late         uint32 // rejected, sequence already played
	Overflows    uint32 // oldest packet evicted on a full buffer
	Underflows   uint32 // Get on an empty running buffer
	Flushes      uint32
	Lost         uint32 // sequence gaps seen on playout, overflow evictions excluded
	LatePlayouts uint32 // buffered with a playout time already passed

	PeakLatenessMs int64 // worst LatePlayouts lateness within the window
}

// PutGetRatio is puts per get in percent.
func (s Stats) PutGetRatio() uint32 {
	if s.Gets == 0 {
		return 0
	}
	return 100 * s.Puts / s.Gets
}

func (s Stats) LossRate() float64 {
	if s.Puts == 0 {
		return 0
	}
	return float64(s.Lost) / float64(s.Puts)
}

// Stats returns a snapshot of the counters since the last flush.
func (b *Buffer) Stats() (Stats, error) {
	if !statsEnabled {
		return Stats{}, ErrUnsupported
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stats
	s.PeakLatenessMs = b.late.peak(int64(b.clock.millis()))
	return s, nil
}

// Debug renders configuration, occupancy and statistics.
func (b *Buffer) Debug() string {
	var sb strings.Builder

	sb.WriteString("--- jitter buffer debug---\n")

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.id != "" {
		fmt.Fprintf(&sb, " id=%s", b.id)
	}
	fmt.Fprintf(&sb, " running=%t mode=%s srate=%d pt=%d\n", b.running, b.mode, b.clock.rate, b.pt)
	fmt.Fprintf(&sb, " min=%dms cur=%d max=%dms capacity=%d [packets]\n", b.minDelay, b.list.len(), b.maxDelay, b.capacity)
	fmt.Fprintf(&sb, " seq_put=%d seq_get=%d\n", b.seqPut, b.seqGet)
	if b.mode == Adaptive {
		fmt.Fprintf(&sb, " jitter=%dms skew=%dms delay=%dms\n",
			b.clock.ticksToMs(int32(b.est.jitterTicks())),
			b.clock.ticksToMs(int32(b.est.skew)),
			b.clock.ticksToMs(int32(b.delayTicks())),
		)
	}

	if statsEnabled {
		s := b.stats
		fmt.Fprintf(&sb, " Stat: put=%d get=%d oos=%d dup=%d late=%d or=%d ur=%d flush=%d",
			s.Puts, s.Gets, s.OutOfOrder, s.Duplicates, s.Late, s.Overflows, s.Underflows, s.Flushes)
		fmt.Fprintf(&sb, "       put/get_ratio=%d%%", s.PutGetRatio())
		lostPct, lostFrac := uint32(0), uint32(0)
		if s.Puts > 0 {
			lostPct = 100 * s.Lost / s.Puts
			lostFrac = 10000 * s.Lost / s.Puts % 100
		}
		fmt.Fprintf(&sb, " lost=%d (%d.%02d%%)\n", s.Lost, lostPct, lostFrac)
		fmt.Fprintf(&sb, " late_play=%d peak=%dms\n", s.LatePlayouts, b.late.peak(int64(b.clock.millis())))
	}

	return sb.String()
}
