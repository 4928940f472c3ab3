// file: jsbridge/pkg/x_rtm/runtime.go

// Package x_rtm defines the script runtime contract shared by the host loop,
// the bus bridge and the HTTP API.
package x_rtm

import (
	"errors"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/snapshot"
)

var ErrDisposed = errors.New("x_rtm: runtime disposed")

// Runtime is a single-threaded script engine bound to a message bridge.
// Implementations must only be used from one goroutine at a time.
type Runtime interface {
	Init() error
	Execute(filename, source string) error
	Send(b channel.Buf) (channel.Buf, error)
	LastException() string
	Snapshot() (*snapshot.Image, error)
	Dispose()
}
