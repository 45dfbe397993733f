// Package jitterbuf adapts the jitter buffer in pkg/jitter to pion/rtp
// packets.
package jitterbuf

import (
	"github.com/pion/rtp"

	"github.com/channel-io/go-jitterbuf/pkg/jitter"
)

// PacketBuffer buffers *rtp.Packet values. Arrival times are stamped from
// the buffer clock when the packet is put.
type PacketBuffer struct {
	buffer     *jitter.Buffer
	clock      jitter.Clock
	sampleRate uint32
}

func NewPacketBuffer(sampleRate uint32, clock jitter.Clock, buffer *jitter.Buffer) *PacketBuffer {
	buffer.SetSampleRate(sampleRate)
	return &PacketBuffer{
		buffer:     buffer,
		clock:      clock,
		sampleRate: sampleRate,
	}
}

// NewPacketBufferFromConfig builds the buffer and its wall clock from config.
func NewPacketBufferFromConfig(config jitter.Config, opts ...jitter.Option) (*PacketBuffer, error) {
	clock := jitter.NewWallClock()
	buffer, err := jitter.NewFactory(config, append([]jitter.Option{jitter.WithClock(clock)}, opts...)...).CreateBuffer()
	if err != nil {
		return nil, err
	}
	return NewPacketBuffer(config.SampleRate, clock, buffer), nil
}

func (p *PacketBuffer) Buffer() *jitter.Buffer {
	return p.buffer
}

func (p *PacketBuffer) Put(packet *rtp.Packet) error {
	payload := jitter.NewPayload(packet.Payload)
	// the buffer retains its own reference
	defer payload.Release()

	return p.buffer.Put(p.header(&packet.Header), payload)
}

func (p *PacketBuffer) header(h *rtp.Header) jitter.Header {
	return jitter.Header{
		Seq:         h.SequenceNumber,
		Timestamp:   h.Timestamp,
		Arrival:     jitter.Ticks(p.clock, p.sampleRate),
		SSRC:        h.SSRC,
		Marker:      h.Marker,
		PayloadType: h.PayloadType,
	}
}

// Get returns the next due packet. more reports that another packet is
// already due and Get should be called again right away.
func (p *PacketBuffer) Get() (packet *rtp.Packet, more bool, err error) {
	f, err := p.buffer.Get()
	if err != nil {
		return nil, false, err
	}
	return toPacket(f), f.CallAgain, nil
}

func (p *PacketBuffer) Drain() (*rtp.Packet, error) {
	f, err := p.buffer.Drain()
	if err != nil {
		return nil, err
	}
	return toPacket(f), nil
}

func toPacket(f jitter.Frame) *rtp.Packet {
	// Put installs no OnRelease hook, so Bytes stays valid after release
	defer f.Payload.Release()

	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         f.Header.Marker,
			PayloadType:    f.Header.PayloadType,
			SequenceNumber: f.Header.Seq,
			Timestamp:      f.Header.Timestamp,
			SSRC:           f.Header.SSRC,
		},
		Payload: f.Payload.Bytes(),
	}
}
