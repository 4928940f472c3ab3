// file: jsbridge/pkg/x_bus/request.go
package x_bus

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/rskv-p/jsbridge/constant"
	"github.com/rskv-p/jsbridge/pkg/x_host"
	"github.com/rskv-p/jsbridge/pkg/x_log"
)

var ErrRespond = errors.New("x_bus: NATS error when sending response")

// RemoteError is an error reported by the responder through headers.
type RemoteError struct {
	Code        int
	Description string
	Fault       []byte // fault JSON when the responder's script failed
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Description)
}

// respond sends data as the reply to msg.
func respond(msg *nats.Msg, data []byte) error {
	if err := msg.RespondMsg(&nats.Msg{Data: data}); err != nil {
		x_log.Error().Str("subject", msg.Subject).Err(err).Msg("failed to respond")
		return fmt.Errorf("%w: %s", ErrRespond, err)
	}
	return nil
}

// respondError replies with error headers. Script faults carry their JSON as the body.
func respondError(msg *nats.Msg, err error) error {
	code := x_host.StatusOf(err)
	reply := &nats.Msg{
		Header: nats.Header{
			constant.HeaderError:     []string{err.Error()},
			constant.HeaderErrorCode: []string{strconv.Itoa(code)},
		},
	}
	if rec, ok := x_host.FaultOf(err); ok {
		reply.Header.Set(constant.HeaderFault, "1")
		reply.Data = []byte(rec.JSON())
	}

	if rerr := msg.RespondMsg(reply); rerr != nil {
		x_log.Error().Str("subject", msg.Subject).Int("code", code).Err(rerr).Msg("failed to send error response")
		return fmt.Errorf("%w: %s", ErrRespond, rerr)
	}
	return nil
}

// remoteError extracts a RemoteError from reply headers, or nil.
func remoteError(msg *nats.Msg) error {
	if msg.Header == nil {
		return nil
	}
	desc := msg.Header.Get(constant.HeaderError)
	if desc == "" {
		return nil
	}
	code, err := strconv.Atoi(msg.Header.Get(constant.HeaderErrorCode))
	if err != nil {
		code = constant.StatusInternalError
	}
	re := &RemoteError{Code: code, Description: desc}
	if msg.Header.Get(constant.HeaderFault) != "" {
		re.Fault = msg.Data
	}
	return re
}
