package jitter

import (
	"github.com/gammazero/deque"
)

// slotPool owns every slot of a buffer. A slot is either free in the pool
// or linked into the packet list, never both.
type slotPool struct {
	free     deque.Deque[*slot]
	capacity int
}

func newSlotPool(capacity int) *slotPool {
	p := &slotPool{capacity: capacity}
	for i := 0; i < capacity; i++ {
		p.free.PushBack(&slot{})
	}
	return p
}

func (p *slotPool) len() int {
	return p.free.Len()
}

// acquire returns a free slot. When the pool is exhausted the oldest
// buffered packet is evicted from l and its slot is reused; the evicted
// header is returned with overflow set.
func (p *slotPool) acquire(l *packetList) (s *slot, evicted Header, overflow bool) {
	if p.free.Len() > 0 {
		return p.free.PopFront(), Header{}, false
	}

	s = l.front()
	evicted = s.hdr
	l.remove(s)
	s.reset()
	return s, evicted, true
}

func (p *slotPool) release(s *slot) {
	s.reset()
	p.free.PushBack(s)
}

func (s *slot) reset() {
	if s.payload != nil {
		s.payload.Release()
	}
	*s = slot{}
}
