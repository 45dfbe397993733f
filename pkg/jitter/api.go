package jitter

// Header carries the already-decoded RTP fields the buffer works with.
// Arrival is the local receive instant in the stream's clock ticks.
type Header struct {
	Seq         uint16
	Timestamp   uint32
	Arrival     uint32
	SSRC        uint32
	Marker      bool
	PayloadType uint8
}

type Mode int

const (
	Fixed Mode = iota
	Adaptive
)

func (m Mode) String() string {
	switch m {
	case Fixed:
		return "fixed"
	case Adaptive:
		return "adaptive"
	}
	return "unknown"
}

// Frame is one packet handed out by Get or Drain. The caller owns one
// reference on Payload and must Release it.
type Frame struct {
	Header  Header
	Payload *Payload

	// CallAgain is set by Get when the next buffered packet is already due.
	CallAgain bool
}

type BufferFactory interface {
	CreateBuffer() (*Buffer, error)
}
