// Package playout drives a jitter buffer at a fixed cadence, the way an
// audio output device pulls one frame every packet time.
package playout

import (
	"errors"
	"sync"
	"time"

	"github.com/frostbyte73/core"
	"github.com/go-logr/logr"

	"github.com/livekit/protocol/logger"

	"github.com/channel-io/go-jitterbuf/pkg/jitter"
)

type Source interface {
	Get() (jitter.Frame, error)
}

// Sink receives played frames. WriteFrame must not keep the payload after
// it returns; the player releases it.
type Sink interface {
	WriteFrame(f jitter.Frame) error
	// Conceal is called on a tick where no packet was due.
	Conceal() error
}

type Player struct {
	src    Source
	sink   Sink
	ptime  time.Duration
	logger logger.Logger

	startOnce sync.Once
	closed    core.Fuse
	done      chan struct{}
}

type Option func(*Player)

func WithLogger(logger logger.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

func NewPlayer(src Source, sink Sink, ptime time.Duration, opts ...Option) *Player {
	p := &Player{
		src:    src,
		sink:   sink,
		ptime:  ptime,
		logger: logger.LogRLogger(logr.Discard()),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) Start() {
	p.startOnce.Do(func() {
		go p.run()
	})
}

func (p *Player) run() {
	defer close(p.done)

	p.logger.Debugw("starting playout", "ptime", p.ptime)

	ticker := time.NewTicker(p.ptime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.Tick(); err != nil && !p.closed.IsBroken() {
				p.logger.Warnw("playout write error", err)
			}
		case <-p.closed.Watch():
			return
		}
	}
}

// Tick plays everything due right now and returns the number of frames
// written. An empty tick is reported to the sink as concealment.
func (p *Player) Tick() (int, error) {
	written := 0
	for {
		f, err := p.src.Get()
		if errors.Is(err, jitter.ErrNotReady) {
			if written == 0 {
				return 0, p.sink.Conceal()
			}
			return written, nil
		} else if err != nil {
			return written, err
		}

		err = p.sink.WriteFrame(f)
		f.Payload.Release()
		if err != nil {
			return written, err
		}
		written++

		if !f.CallAgain {
			return written, nil
		}
	}
}

// Close stops the playout goroutine and waits for it to exit.
func (p *Player) Close() {
	p.closed.Break()
	// never started: nothing will close done
	p.startOnce.Do(func() {
		close(p.done)
	})
	<-p.done
}
