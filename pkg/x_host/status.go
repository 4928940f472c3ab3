// file: jsbridge/pkg/x_host/status.go
package x_host

import (
	"context"
	"errors"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/constant"
	"github.com/rskv-p/jsbridge/fault"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
)

// StatusOf maps a Send or Execute error onto the status code reported by the bus and the API.
func StatusOf(err error) int {
	var rec *fault.Record
	switch {
	case err == nil:
		return 200
	case errors.Is(err, channel.ErrNoHandler):
		return constant.StatusNotFound
	case errors.Is(err, channel.ErrMessageTooLarge):
		return constant.StatusTooLarge
	case errors.As(err, &rec):
		return constant.StatusUnprocessable
	case errors.Is(err, ErrStopped), errors.Is(err, x_rtm.ErrDisposed):
		return constant.StatusUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return constant.StatusTimeout
	default:
		return constant.StatusInternalError
	}
}

// FaultOf returns the script fault carried by err, if any.
func FaultOf(err error) (*fault.Record, bool) {
	var rec *fault.Record
	ok := errors.As(err, &rec)
	return rec, ok
}
