// file: jsbridge/pkg/x_host/host.go

// Package x_host serialises access to a runtime on a single goroutine.
package x_host

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
	"github.com/rskv-p/jsbridge/recover"
)

var (
	ErrRunning = errors.New("x_host: already running")
	ErrStopped = errors.New("x_host: stopped")
)

// Func runs on the host goroutine with exclusive access to the runtime.
type Func func(rt x_rtm.Runtime) error

type job struct {
	ctx context.Context
	fn  Func
	res chan error
}

// Host owns one runtime. Only the goroutine inside Run touches it.
type Host struct {
	rt   x_rtm.Runtime
	jobs chan job
	done chan struct{}
	log  zerolog.Logger

	mu      sync.Mutex
	started bool
}

// New wraps rt. The host disposes rt when Run returns.
func New(rt x_rtm.Runtime, logger *zerolog.Logger) *Host {
	l := x_log.New("x_host")
	if logger != nil {
		l = *logger
	}
	return &Host{
		rt:   rt,
		jobs: make(chan job),
		done: make(chan struct{}),
		log:  l,
	}
}

//---------------------
// LOOP
//---------------------

// Run processes jobs until ctx ends.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return ErrRunning
	}
	h.started = true
	h.mu.Unlock()

	h.log.Debug().Msg("host loop started")
	defer func() {
		close(h.done)
		h.rt.Dispose()
		h.log.Debug().Msg("host loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-h.jobs:
			if err := j.ctx.Err(); err != nil {
				j.res <- err
				continue
			}
			j.res <- recover.RecoverFunc("x_host.job", func() error {
				return j.fn(h.rt)
			})
		}
	}
}

// Done is closed once Run has returned.
func (h *Host) Done() <-chan struct{} { return h.done }

// Do runs fn on the host goroutine and waits for it. ctx only bounds the wait for a free slot.
func (h *Host) Do(ctx context.Context, fn Func) error {
	j := job{ctx: ctx, fn: fn, res: make(chan error, 1)}
	select {
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	case h.jobs <- j:
	}
	return <-j.res
}

//---------------------
// SHORTCUTS
//---------------------

// Execute evaluates one unit on the host goroutine.
func (h *Host) Execute(ctx context.Context, filename, source string) error {
	return h.Do(ctx, func(rt x_rtm.Runtime) error {
		return rt.Execute(filename, source)
	})
}

// Send delivers b to the script's recv callback.
func (h *Host) Send(ctx context.Context, b channel.Buf) (channel.Buf, error) {
	var resp channel.Buf
	err := h.Do(ctx, func(rt x_rtm.Runtime) error {
		var err error
		resp, err = rt.Send(b)
		return err
	})
	return resp, err
}

// LastException reads the runtime's last fault JSON.
func (h *Host) LastException(ctx context.Context) (string, error) {
	var s string
	err := h.Do(ctx, func(rt x_rtm.Runtime) error {
		s = rt.LastException()
		return nil
	})
	return s, err
}
