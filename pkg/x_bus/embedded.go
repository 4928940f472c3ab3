// file: jsbridge/pkg/x_bus/embedded.go
package x_bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/rskv-p/jsbridge/constant"
	"github.com/rskv-p/jsbridge/recover"
)

var ErrNotReady = errors.New("x_bus: nats-server not ready")

// StartEmbedded runs an in-process nats-server. Port -1 picks a random port.
func StartEmbedded(host string, port int) (*server.Server, error) {
	opts := &server.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats-server init: %w", err)
	}

	go recover.Safe("x_bus.nats", ns.Start)

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, ErrNotReady
	}
	return ns, nil
}

// Connect opens a client connection named after the application.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	opts = append([]nats.Option{nats.Name(constant.AppName)}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats client connect: %w", err)
	}
	return nc, nil
}
