package jitter

import (
	"go.uber.org/atomic"
)

// Payload is a reference counted media payload shared between the receive
// path, the buffer and the consumer. It starts with one reference owned by
// the creator.
type Payload struct {
	data      []byte
	refs      atomic.Int32
	onRelease func([]byte)
}

func NewPayload(data []byte) *Payload {
	p := &Payload{data: data}
	p.refs.Store(1)
	return p
}

// OnRelease installs a hook called with the backing slice once the last
// reference is dropped, e.g. to return it to a sync.Pool.
func (p *Payload) OnRelease(fn func([]byte)) *Payload {
	p.onRelease = fn
	return p
}

func (p *Payload) Bytes() []byte {
	return p.data
}

func (p *Payload) Refs() int32 {
	return p.refs.Load()
}

func (p *Payload) Retain() error {
	for {
		n := p.refs.Load()
		if n <= 0 {
			return ErrPayloadReleased
		}
		if p.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

func (p *Payload) Release() {
	n := p.refs.Dec()
	if n != 0 {
		return
	}
	if p.onRelease != nil {
		p.onRelease(p.data)
	}
	p.data = nil
}
