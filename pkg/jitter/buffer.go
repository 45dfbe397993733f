package jitter

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/lo"

	"github.com/livekit/protocol/logger"
)

const (
	DefaultPutTimeout     = 10 * time.Second
	DefaultLatenessWindow = 2 * time.Second
)

// Buffer is an adaptive jitter buffer for one incoming RTP stream. Packets
// are kept in sequence order and handed out once their playout time is
// reached. It is safe for concurrent use by a producer and a consumer.
type Buffer struct {
	mu sync.Mutex

	id       string
	logger   logger.Logger
	listener Listener
	clock    playoutClock
	mode     Mode

	minDelay   uint32 // ms
	maxDelay   uint32 // ms
	capacity   int
	putTimeout time.Duration

	pool *slotPool
	list packetList
	est  estimator
	late *latenessWindow

	ssrc        uint32
	ssrcSet     bool
	pt          int
	seqPut      uint16
	seqGet      uint16
	seqGetValid bool
	running     bool
	lastPut     time.Duration
	lastPutSet  bool
	closed      bool

	stats Stats

	// overflow evictions since the last pop, not counted as lost
	evictedSinceGet uint16
}

type Option func(*Buffer)

func WithLogger(logger logger.Logger) Option {
	return func(b *Buffer) {
		b.logger = logger
	}
}

func WithClock(clock Clock) Option {
	return func(b *Buffer) {
		b.clock.clock = clock
	}
}

func WithListener(listener Listener) Option {
	return func(b *Buffer) {
		b.listener = listener
	}
}

func WithMode(mode Mode) Option {
	return func(b *Buffer) {
		b.mode = mode
	}
}

func WithSampleRate(rate uint32) Option {
	return func(b *Buffer) {
		b.clock.rate = rate
	}
}

// WithPutTimeout sets the silence after which a packet carrying the marker
// bit resynchronizes the buffer.
func WithPutTimeout(timeout time.Duration) Option {
	return func(b *Buffer) {
		b.putTimeout = timeout
	}
}

func WithLatenessWindow(window time.Duration) Option {
	return func(b *Buffer) {
		b.late = newLatenessWindow(window.Milliseconds())
	}
}

func WithID(id string) Option {
	return func(b *Buffer) {
		b.id = id
	}
}

// New allocates a buffer holding at most capacity packets and delaying
// playout by minDelayMs to maxDelayMs. All packet slots are allocated up
// front.
func New(minDelayMs, maxDelayMs uint32, capacity int, opts ...Option) (*Buffer, error) {
	if !seqSelfCheck() {
		return nil, ErrBroken
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidArgument, capacity)
	}
	if minDelayMs > maxDelayMs {
		return nil, fmt.Errorf("%w: min delay %dms above max delay %dms", ErrInvalidArgument, minDelayMs, maxDelayMs)
	}

	b := &Buffer{
		logger:     logger.LogRLogger(logr.Discard()),
		listener:   NullListener{},
		clock:      playoutClock{clock: NewWallClock()},
		mode:       Fixed,
		minDelay:   minDelayMs,
		maxDelay:   maxDelayMs,
		capacity:   capacity,
		putTimeout: DefaultPutTimeout,
		pool:       newSlotPool(capacity),
		late:       newLatenessWindow(DefaultLatenessWindow.Milliseconds()),
		pt:         -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id != "" {
		b.logger = b.logger.WithValues("jitterBufferID", b.id)
	}

	b.logger.Infow("jitter buffer allocated",
		"minDelayMs", minDelayMs,
		"maxDelayMs", maxDelayMs,
		"capacity", capacity,
		"mode", b.mode.String(),
	)

	return b, nil
}

func (b *Buffer) SetSampleRate(rate uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clock.rate = rate
}

func (b *Buffer) SetMode(mode Mode) error {
	if mode != Fixed && mode != Adaptive {
		return fmt.Errorf("%w: mode %d", ErrInvalidArgument, mode)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.mode = mode
	return nil
}

// Put inserts a packet. On success the buffer holds its own reference on
// payload until the packet leaves the buffer.
func (b *Buffer) Put(hdr Header, payload *Payload) error {
	if payload == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("%w: buffer closed", ErrInvalidArgument)
	}
	if b.clock.rate == 0 {
		b.logger.Warnw("no clock rate set", nil)
		return fmt.Errorf("%w: no sample rate set", ErrInvalidArgument)
	}

	if b.pt < 0 {
		b.pt = int(hdr.PayloadType)
	}

	if b.ssrcSet && b.ssrc != hdr.SSRC {
		b.logger.Debugw("ssrc changed", "old", b.ssrc, "new", hdr.SSRC)
		b.flush()
	}

	now := b.clock.clock.Elapsed()
	if b.lastPutSet && now-b.lastPut > b.putTimeout {
		b.logger.Debugw("put timeout", "elapsed", now-b.lastPut, "marker", hdr.Marker)
		if hdr.Marker {
			b.flush()
		}
	}
	b.lastPut = now
	b.lastPutSet = true
	b.ssrc = hdr.SSRC
	b.ssrcSet = true

	if b.running && b.seqGetValid && !SeqLess(b.seqGet, hdr.Seq) {
		b.stats.Late++
		b.logger.Debugw("packet too late", "seq", hdr.Seq, "seqPut", b.seqPut, "seqGet", b.seqGet)
		b.listener.OnLate(hdr)
		return fmt.Errorf("%w: seq %d, last played %d", ErrLate, hdr.Seq, b.seqGet)
	}

	if err := payload.Retain(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	b.stats.Puts++

	at, inOrder, dup := b.list.findPosition(hdr.Seq)
	if dup {
		payload.Release()
		b.stats.Duplicates++
		b.logger.Debugw("duplicate packet", "seq", hdr.Seq)
		b.listener.OnDuplicate(hdr)
		return fmt.Errorf("%w: seq %d", ErrDuplicate, hdr.Seq)
	}

	s, evicted, overflow := b.pool.acquire(&b.list)
	if overflow {
		b.stats.Overflows++
		b.evictedSinceGet++
		b.logger.Warnw("dropping oldest packet", nil, "seq", evicted.Seq, "overflows", b.stats.Overflows)
		b.listener.OnOverflow(evicted)
		if at == s {
			// the insertion point was the evicted head
			at = nil
		}
	}

	s.hdr = hdr
	s.payload = payload
	if at == nil {
		b.list.pushFront(s)
	} else {
		b.list.insertAfter(at, s)
	}
	if !inOrder {
		b.stats.OutOfOrder++
	}

	b.running = true
	b.seqPut = hdr.Seq

	playout, adapted := b.est.playoutTime(s.prev, s, b.mode, &b.clock, b.minDelay, b.maxDelay)
	s.playoutTime = playout
	if adapted {
		delayMs := b.clock.ticksToMs(int32(b.delayTicks()))
		b.logger.Debugw("adaptive delay changed", "delayMs", delayMs)
		b.listener.OnDelayChanged(delayMs)
	}

	next := b.clock.ticks()
	if timeLess(s.playoutTime, next) {
		// still buffered, the consumer may be able to absorb it
		b.est.late()
		b.stats.LatePlayouts++
		b.late.add(int64(b.clock.millis()), int64(b.clock.ticksToMs(int32(next-s.playoutTime))))
	}

	return nil
}

// Get returns the oldest packet once its playout time has come. The
// returned Frame has CallAgain set when the following packet is due too.
func (b *Buffer) Get() (Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.Gets++

	head := b.list.front()
	if head == nil {
		if b.running {
			b.stats.Underflows++
		}
		return Frame{}, ErrNotReady
	}

	next := b.clock.ticks()
	if timeLess(next, head.playoutTime) {
		return Frame{}, ErrNotReady
	}

	f := b.pop(head)
	if n := b.list.front(); n != nil && !timeLess(next, n.playoutTime) {
		f.CallAgain = true
	}

	return f, nil
}

// Drain returns the oldest packet regardless of its playout time.
func (b *Buffer) Drain() (Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head := b.list.front()
	if head == nil {
		return Frame{}, ErrEmpty
	}

	return b.pop(head), nil
}

func (b *Buffer) pop(s *slot) Frame {
	if b.seqGetValid && SeqLess(b.seqGet, s.hdr.Seq) {
		if gap := s.hdr.Seq - b.seqGet - 1; gap > b.evictedSinceGet {
			b.stats.Lost += uint32(gap - b.evictedSinceGet)
		}
	}
	b.evictedSinceGet = 0
	b.seqGet = s.hdr.Seq
	b.seqGetValid = true

	// the buffer's reference moves to the caller
	f := Frame{Header: s.hdr, Payload: s.payload}
	s.payload = nil

	b.list.remove(s)
	b.pool.release(s)

	return f
}

// Flush drops every buffered packet and returns the buffer to idle.
func (b *Buffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flush()
}

func (b *Buffer) flush() {
	dropped := b.list.len()
	if dropped > 0 {
		b.logger.Debugw("flushing", "packets", dropped)
	}

	for s := b.list.front(); s != nil; s = b.list.front() {
		b.list.remove(s)
		b.pool.release(s)
	}

	b.running = false
	b.seqGet = 0
	b.seqGetValid = false
	b.evictedSinceGet = 0
	b.est.reset()
	b.late.reset()

	flushes := b.stats.Flushes + 1
	b.stats = Stats{Flushes: flushes}

	b.listener.OnFlush(dropped)
}

// Close flushes the buffer and releases its slots. Put fails afterwards.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.flush()
	b.pool.free.Clear()
	b.closed = true
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.list.len()
}

// NextPlayoutDelay reports the ms until the head packet is due. ok is false
// when nothing is buffered or the head is not the next expected sequence.
func (b *Buffer) NextPlayoutDelay() (delayMs int32, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head := b.list.front()
	if head == nil {
		return 0, false
	}

	// late or reordered, the head would play too late
	if b.seqGetValid && head.hdr.Seq != b.seqGet+1 {
		return 0, false
	}

	current := b.clock.ticks()
	if !timeLess(current, head.playoutTime) {
		return 0, true
	}

	delayMs = b.clock.ticksToMs(int32(head.playoutTime - current))
	if delayMs == 0 {
		delayMs = 1
	}
	return delayMs, true
}

// delayTicks is the adaptive offset currently applied to new packets.
func (b *Buffer) delayTicks() uint32 {
	return lo.Clamp(b.est.jitterOffset, b.clock.msToTicks(b.minDelay), b.clock.msToTicks(b.maxDelay))
}
