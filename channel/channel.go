// file: jsbridge/channel/channel.go
package channel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rskv-p/jsbridge/recover"
)

//---------------------
// ERRORS
//---------------------

var (
	ErrNoHandler             = errors.New("channel: no handler registered")
	ErrDuplicateRegistration = errors.New("channel: handler already registered")
	ErrNilHandler            = errors.New("channel: nil handler")
	ErrMessageTooLarge       = errors.New("channel: message too large")
)

//---------------------
// TYPES
//---------------------

// Buf is an opaque message. Ownership moves to the receiver on every call.
type Buf []byte

// Handler consumes one message and may answer with another. A nil Buf means no response.
type Handler func(Buf) (Buf, error)

// Channel holds at most one handler and delivers messages to it synchronously.
type Channel struct {
	mu      sync.RWMutex
	name    string
	handler Handler
	maxSize int
}

// Option configures a Channel.
type Option func(*Channel)

// WithMaxSize rejects payloads longer than n bytes. Zero disables the limit.
func WithMaxSize(n int) Option {
	return func(c *Channel) { c.maxSize = n }
}

// New creates an empty channel.
func New(name string, opts ...Option) *Channel {
	c := &Channel{name: name}
	for _, o := range opts {
		o(c)
	}
	return c
}

//---------------------
// REGISTRATION
//---------------------

func (c *Channel) Name() string { return c.name }

// Register stores h. Only the first registration is kept.
func (c *Channel) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, c.name)
	}
	c.handler = h
	return nil
}

// Registered reports whether a handler is present.
func (c *Channel) Registered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler != nil
}

//---------------------
// DELIVERY
//---------------------

// Send copies b, hands it to the handler and returns the handler's response.
func (c *Channel) Send(b Buf) (Buf, error) {
	c.mu.RLock()
	h, limit := c.handler, c.maxSize
	c.mu.RUnlock()

	if h == nil {
		return nil, ErrNoHandler
	}
	if limit > 0 && len(b) > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, len(b), limit)
	}

	msg := Clone(b)
	var resp Buf
	err := recover.RecoverFunc("channel."+c.name, func() error {
		var err error
		resp, err = h(msg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", c.name, err)
	}
	return resp, nil
}

// Clone returns an independent copy of b. Nil stays nil.
func Clone(b Buf) Buf {
	if b == nil {
		return nil
	}
	out := make(Buf, len(b))
	copy(out, b)
	return out
}
