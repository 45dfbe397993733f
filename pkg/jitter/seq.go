package jitter

// SeqLess reports whether sequence number x is older than y, handling
// 16-bit wraparound.
func SeqLess(x, y uint16) bool {
	return int16(x-y) < 0
}

func seqSelfCheck() bool {
	return SeqLess(10, 20) && !SeqLess(20, 10) && SeqLess(65535, 0)
}

// timeLess is the 32-bit counterpart of SeqLess for timestamps and
// playout times.
func timeLess(a, b uint32) bool {
	return int32(a-b) < 0
}

func offsetMin(a, b uint32) uint32 {
	if timeLess(a, b) {
		return a
	}
	return b
}
