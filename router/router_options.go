// file: jsbridge/router/router_options.go
package router

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rskv-p/jsbridge/codec"
	"github.com/rskv-p/jsbridge/recover"
)

// ----------------------------------------------------
// Router options and hooks
// ----------------------------------------------------

// Options configures router behavior.
type Options struct {
	Name             string           // Logical router name (e.g. "host")
	NotFound         RejectHandler    // Called when route is missing
	OnError          ErrorHook        // Called after a handler returns an error
	Wrappers         []HandlerWrapper // Global middleware (outermost first)
	ContextDecorator ContextDecorator // Optional context enrichment
	Logger           *zerolog.Logger  // Optional structured logger
}

// Option applies a configuration mutation to Options.
type Option func(*Options)

// RejectHandler is invoked when no route is found for a given message.
type RejectHandler func(ctx context.Context, req *codec.Message, res *codec.Message) *Error

// ErrorHook is called after a Handler returns an error.
type ErrorHook func(ctx context.Context, req *codec.Message, err *Error)

// ContextDecorator allows enriching context before calling handler.
type ContextDecorator func(context.Context, *codec.Message) context.Context

// ----------------------------------------------------
// Option builders
// ----------------------------------------------------

// Name sets a logical name for the router (used in logs/debug).
func Name(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// OnNotFound sets the fallback handler when a route is not found.
func OnNotFound(h RejectHandler) Option {
	return func(o *Options) {
		o.NotFound = h
	}
}

// OnErrorHook registers a hook triggered after a handler returns error.
func OnErrorHook(h ErrorHook) Option {
	return func(o *Options) {
		o.OnError = h
	}
}

// UseMiddleware appends middleware to the global handler chain.
// Wrappers are applied in reverse order: outermost first.
// Only routes added after this option takes effect are wrapped.
func UseMiddleware(wrappers ...HandlerWrapper) Option {
	return func(o *Options) {
		o.Wrappers = append(o.Wrappers, wrappers...)
	}
}

// WithLogger sets a structured logger for the router.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = &l
	}
}

// WithContextDecorator sets a function to mutate context before handler execution.
func WithContextDecorator(fn ContextDecorator) Option {
	return func(o *Options) {
		o.ContextDecorator = fn
	}
}

// WithDefaults returns safe default options.
func WithDefaults() Options {
	return Options{
		Name:     "default",
		Wrappers: nil,
	}
}

// ----------------------------------------------------
// Stock middleware
// ----------------------------------------------------

// Recover turns a panicking handler into a 500 reply.
func Recover(service string) HandlerWrapper {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *codec.Message, res *codec.Message) *Error {
			var herr *Error
			err := recover.RecoverFunc(service+"."+req.Type, func() error {
				herr = next(ctx, req, res)
				return nil
			})
			if err != nil {
				return &Error{StatusCode: 500, Message: err.Error()}
			}
			return herr
		}
	}
}

// Logging logs every command with its duration.
func Logging(l zerolog.Logger) HandlerWrapper {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *codec.Message, res *codec.Message) *Error {
			start := time.Now()
			err := next(ctx, req, res)
			ev := l.Debug()
			if err != nil {
				ev = l.Warn().Int("status", err.StatusCode).Str("err", err.Message)
			}
			ev.Uint32("cmd_id", req.CmdID).
				Str("type", req.Type).
				Dur("elapsed", time.Since(start)).
				Msg("command")
			return err
		}
	}
}
