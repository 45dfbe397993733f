package jitter

type slot struct {
	hdr         Header
	playoutTime uint32
	payload     *Payload

	prev, next *slot
}

// packetList keeps buffered packets in ascending sequence order.
type packetList struct {
	head, tail *slot
	n          int
}

func (l *packetList) len() int {
	return l.n
}

func (l *packetList) front() *slot {
	return l.head
}

func (l *packetList) back() *slot {
	return l.tail
}

func (l *packetList) pushBack(s *slot) {
	s.prev = l.tail
	s.next = nil
	if l.tail != nil {
		l.tail.next = s
	} else {
		l.head = s
	}
	l.tail = s
	l.n++
}

func (l *packetList) pushFront(s *slot) {
	s.prev = nil
	s.next = l.head
	if l.head != nil {
		l.head.prev = s
	} else {
		l.tail = s
	}
	l.head = s
	l.n++
}

func (l *packetList) insertAfter(at, s *slot) {
	if at == l.tail {
		l.pushBack(s)
		return
	}
	s.prev = at
	s.next = at.next
	at.next.prev = s
	at.next = s
	l.n++
}

func (l *packetList) remove(s *slot) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		l.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		l.tail = s.prev
	}
	s.prev, s.next = nil, nil
	l.n--
}

// findPosition scans backward from the tail for the insertion point of seq.
// It returns the packet to insert after (nil to prepend), whether the tail
// fast path applied and whether seq is already buffered.
func (l *packetList) findPosition(seq uint16) (at *slot, inOrder, dup bool) {
	if l.tail == nil || SeqLess(l.tail.hdr.Seq, seq) {
		return l.tail, true, false
	}
	for s := l.tail; s != nil; s = s.prev {
		if SeqLess(s.hdr.Seq, seq) {
			return s, false, false
		}
		if s.hdr.Seq == seq {
			return s, false, true
		}
	}
	return nil, false, false
}

func (l *packetList) each(fn func(s *slot) bool) {
	for s := l.head; s != nil; s = s.next {
		if !fn(s) {
			return
		}
	}
}
