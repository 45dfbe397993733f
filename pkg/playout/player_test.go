package playout

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/channel-io/go-jitterbuf/pkg/jitter"
)

type testSink struct {
	mu        sync.Mutex
	seqs      []uint16
	concealed int
	err       error
}

func (s *testSink) WriteFrame(f jitter.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqs = append(s.seqs, f.Header.Seq)
	return s.err
}

func (s *testSink) Conceal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.concealed++
	return nil
}

func (s *testSink) played() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]uint16(nil), s.seqs...)
}

func newBuffer(t *testing.T, clock jitter.Clock) *jitter.Buffer {
	b, err := jitter.New(0, 0, 8, jitter.WithClock(clock), jitter.WithSampleRate(8000))
	require.NoError(t, err)
	return b
}

func put(t *testing.T, b *jitter.Buffer, clock jitter.Clock, seq uint16) *jitter.Payload {
	p := jitter.NewPayload([]byte{byte(seq)})
	require.NoError(t, b.Put(jitter.Header{
		Seq:       seq,
		Timestamp: uint32(seq) * 160,
		Arrival:   jitter.Ticks(clock, 8000),
	}, p))
	return p
}

func TestTick(t *testing.T) {
	clock := jitter.NewManualClock(time.Second)
	b := newBuffer(t, clock)
	sink := &testSink{}
	p := NewPlayer(b, sink, 20*time.Millisecond)

	n, err := p.Tick()
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 1, sink.concealed)

	payloads := []*jitter.Payload{put(t, b, clock, 1), put(t, b, clock, 2), put(t, b, clock, 3)}

	// all three are due at once and played within one tick
	n, err = p.Tick()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []uint16{1, 2, 3}, sink.played())
	require.Equal(t, 1, sink.concealed)

	for _, pl := range payloads {
		require.EqualValues(t, 1, pl.Refs())
	}
}

func TestTickSinkError(t *testing.T) {
	clock := jitter.NewManualClock(time.Second)
	b := newBuffer(t, clock)
	sink := &testSink{err: errors.New("device gone")}
	p := NewPlayer(b, sink, 20*time.Millisecond)

	put(t, b, clock, 1)
	put(t, b, clock, 2)

	n, err := p.Tick()
	require.Error(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 1, b.Len())
}

func TestStartClose(t *testing.T) {
	clock := jitter.NewWallClock()
	b := newBuffer(t, clock)
	sink := &testSink{}
	p := NewPlayer(b, sink, 5*time.Millisecond)

	put(t, b, clock, 1)
	p.Start()
	p.Start()

	require.Eventually(t, func() bool {
		return len(sink.played()) == 1
	}, time.Second, 5*time.Millisecond)

	p.Close()
	require.Equal(t, []uint16{1}, sink.played())
}

func TestCloseWithoutStart(t *testing.T) {
	p := NewPlayer(newBuffer(t, jitter.NewWallClock()), &testSink{}, 20*time.Millisecond)
	p.Close()
	p.Close()
}
