// file: jsbridge/recover/recover.go
package recover

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rskv-p/jsbridge/pkg/x_log"
)

const (
	tagService  = "service"
	tagFunction = "function"
	tagLabel    = "label"
)

// ErrPanic is matched by every error produced from a recovered panic.
var ErrPanic = errors.New("panic recovered")

var log = x_log.New("recover")

// ----------------------------------------------------
// Panic error
// ----------------------------------------------------

// PanicError carries a recovered value and the stack at the point of recovery.
type PanicError struct {
	Label string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Label, e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrPanic }

// ----------------------------------------------------
// Panic recovery functions
// ----------------------------------------------------

// Safe runs fn and logs a panic instead of crashing. Meant for goroutine entry points.
func Safe(label string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str(tagLabel, label).Str("stack", string(debug.Stack())).Msgf("panic: %v", r)
		}
	}()
	fn()
}

// RecoverFunc runs fn and turns a panic into a *PanicError.
func RecoverFunc(label string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Label: label, Value: r, Stack: debug.Stack()}
			log.Error().Str(tagLabel, label).Str("stack", string(pe.Stack)).Msgf("panic: %v", r)
			err = pe
		}
	}()
	return fn()
}

// ----------------------------------------------------
// Universal wrapper
// ----------------------------------------------------

// RecoverableFunc is a context-aware function that may panic.
type RecoverableFunc func(ctx context.Context) error

// WrapRecover wraps a context-aware function with panic protection.
func WrapRecover(service, function string, f RecoverableFunc) RecoverableFunc {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str(tagService, service).
					Str(tagFunction, function).
					Str("stack", string(debug.Stack())).
					Msgf("panic: %v", r)
				err = fmt.Errorf("panic recovered in %s.%s: %v: %w", service, function, r, ErrPanic)
			}
		}()
		return f(ctx)
	}
}
