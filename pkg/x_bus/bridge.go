// file: jsbridge/pkg/x_bus/bridge.go
package x_bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/pkg/x_host"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/recover"
)

var ErrNotStarted = errors.New("x_bus: bridge not started")

//---------------------
// OUTBOUND
//---------------------

// Outbound turns deno.send payloads into NATS requests on subject.
// No responders maps to channel.ErrNoHandler so the script sees null.
func Outbound(nc *nats.Conn, subject string, timeout time.Duration) channel.Handler {
	return func(b channel.Buf) (channel.Buf, error) {
		msg, err := nc.Request(subject, b, timeout)
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, channel.ErrNoHandler
		}
		if err != nil {
			return nil, fmt.Errorf("x_bus: request %s: %w", subject, err)
		}
		if rerr := remoteError(msg); rerr != nil {
			return nil, rerr
		}
		if len(msg.Data) == 0 {
			return nil, nil
		}
		return msg.Data, nil
	}
}

//---------------------
// BRIDGE
//---------------------

// Bridge answers NATS requests on the inbound subject with the script's recv callback.
type Bridge struct {
	nc   *nats.Conn
	host *x_host.Host
	cfg  config.NATSConfig
	log  zerolog.Logger

	mu    sync.Mutex
	ctx   context.Context
	subs  []*nats.Subscription
	stats *statsBook
}

// New creates a bridge. Nothing is subscribed until Start.
func New(nc *nats.Conn, host *x_host.Host, cfg config.NATSConfig, logger *zerolog.Logger) *Bridge {
	l := x_log.New("x_bus")
	if logger != nil {
		l = *logger
	}
	return &Bridge{nc: nc, host: host, cfg: cfg, log: l, stats: newStatsBook()}
}

// Start subscribes the inbound subject.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	return b.subscribe(b.cfg.InSubject, func(msg *nats.Msg) {
		start := time.Now()
		resp, err := b.handle(b.cfg.InSubject, func(ctx context.Context) (channel.Buf, error) {
			return b.host.Send(ctx, msg.Data)
		})
		_, isFault := x_host.FaultOf(err)
		b.stats.record(b.cfg.InSubject, start, err, isFault)
		b.reply(msg, resp, err)
	})
}

// Serve answers requests on subject with h. Used to expose host handlers, e.g. the command router.
func (b *Bridge) Serve(subject string, h channel.Handler) error {
	if h == nil {
		return channel.ErrNilHandler
	}
	return b.subscribe(subject, func(msg *nats.Msg) {
		start := time.Now()
		resp, err := b.handle(subject, func(context.Context) (channel.Buf, error) {
			return h(msg.Data)
		})
		b.stats.record(subject, start, err, false)
		b.reply(msg, resp, err)
	})
}

// handle runs one request under the bridge context with panics turned into errors.
func (b *Bridge) handle(subject string, fn func(ctx context.Context) (channel.Buf, error)) (channel.Buf, error) {
	ctx, cancel := b.requestContext()
	defer cancel()

	var resp channel.Buf
	err := recover.WrapRecover("x_bus", subject, func(ctx context.Context) (err error) {
		resp, err = fn(ctx)
		return err
	})(ctx)
	return resp, err
}

func (b *Bridge) subscribe(subject string, cb nats.MsgHandler) error {
	b.stats.add(subject, b.cfg.Queue)

	var (
		sub *nats.Subscription
		err error
	)
	if b.cfg.Queue == "" {
		sub, err = b.nc.Subscribe(subject, cb)
	} else {
		sub, err = b.nc.QueueSubscribe(subject, b.cfg.Queue, cb)
	}
	if err != nil {
		return fmt.Errorf("x_bus: subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	b.log.Info().Str("subject", subject).Str("queue", b.cfg.Queue).Msg("bus subscription added")
	return nil
}

func (b *Bridge) requestContext() (context.Context, context.CancelFunc) {
	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, b.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (b *Bridge) reply(msg *nats.Msg, resp channel.Buf, err error) {
	if msg.Reply == "" {
		if err != nil {
			b.log.Warn().Str("subject", msg.Subject).Err(err).Msg("message failed without reply subject")
		}
		return
	}
	if err != nil {
		b.log.Debug().Str("subject", msg.Subject).Err(err).Msg("replying with error")
		_ = respondError(msg, err)
		return
	}
	_ = respond(msg, resp)
}

// Stats returns a copy of the per-subject counters.
func (b *Bridge) Stats() Stats { return b.stats.snapshot() }

// ResetStats clears the counters.
func (b *Bridge) ResetStats() { b.stats.reset() }

// Stop drains every subscription.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	if subs == nil {
		return ErrNotStarted
	}
	var errs []error
	for _, s := range subs {
		if err := s.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain %s: %w", s.Subject, err))
		}
	}
	return errors.Join(errs...)
}
