package jitter

// Listener observes buffer events. Callbacks run with the buffer lock held
// and must not call back into the Buffer.
type Listener interface {
	OnOverflow(evicted Header)
	OnLate(hdr Header)
	OnDuplicate(hdr Header)
	OnFlush(dropped int)
	OnDelayChanged(delayMs int32)
}

type NullListener struct {
}

func (n NullListener) OnOverflow(evicted Header) {}

func (n NullListener) OnLate(hdr Header) {}

func (n NullListener) OnDuplicate(hdr Header) {}

func (n NullListener) OnFlush(dropped int) {}

func (n NullListener) OnDelayChanged(delayMs int32) {}
