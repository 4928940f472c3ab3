// file: jsbridge/pkg/x_rtm/mock/mock.go

// Package mock provides a scriptable x_rtm.Runtime for host-side tests.
package mock

import (
	"sync"
	"time"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
	"github.com/rskv-p/jsbridge/snapshot"
)

// Runtime records every call and answers with the configured results.
type Runtime struct {
	mu sync.Mutex

	Initialized bool
	Disposed    bool
	Executed    []snapshot.Script // units passed to Execute
	Sent        []channel.Buf     // payloads passed to Send

	ExecErr   error                                  // returned by Execute
	OnSend    func(channel.Buf) (channel.Buf, error) // answers Send; nil means ErrNoHandler
	LastFault string                                 // returned by LastException
}

// Ensure interface compliance
var _ x_rtm.Runtime = (*Runtime)(nil)

func (m *Runtime) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Initialized, m.Disposed = true, false
	return nil
}

func (m *Runtime) Execute(filename, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disposed {
		return x_rtm.ErrDisposed
	}
	if m.ExecErr != nil {
		return m.ExecErr
	}
	m.Executed = append(m.Executed, snapshot.Script{Name: filename, Source: source})
	return nil
}

func (m *Runtime) Send(b channel.Buf) (channel.Buf, error) {
	m.mu.Lock()
	if m.Disposed {
		m.mu.Unlock()
		return nil, x_rtm.ErrDisposed
	}
	m.Sent = append(m.Sent, channel.Clone(b))
	h := m.OnSend
	m.mu.Unlock()

	if h == nil {
		return nil, channel.ErrNoHandler
	}
	return h(b)
}

func (m *Runtime) LastException() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastFault
}

// Snapshot returns the executed units with no blobs.
func (m *Runtime) Snapshot() (*snapshot.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disposed {
		return nil, x_rtm.ErrDisposed
	}
	return &snapshot.Image{
		Version: snapshot.Version,
		Created: time.Now().UTC(),
		Scripts: append([]snapshot.Script(nil), m.Executed...),
	}, nil
}

func (m *Runtime) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Disposed = true
}

// SentCount is safe to call while the runtime is in use.
func (m *Runtime) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
