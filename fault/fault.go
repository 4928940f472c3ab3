// file: jsbridge/fault/fault.go

// Package fault describes uncaught script faults and routes them to a single hook.
package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrReentrant = errors.New("fault: raised while the error hook was running")

// Frame is one entry of a script call stack. Line and Column are 1-based.
type Frame struct {
	Function string `json:"functionName"`
	Source   string `json:"scriptName"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	IsEval   bool   `json:"isEval"`
}

// Record is an uncaught script fault.
type Record struct {
	Message string
	Source  string
	Line    int
	Column  int
	Cause   error
	Frames  []Frame
}

func (r *Record) Error() string {
	if r.Source == "" {
		return r.Message
	}
	return fmt.Sprintf("%s at %s:%d:%d", r.Message, r.Source, r.Line, r.Column)
}

func (r *Record) Unwrap() error { return r.Cause }

// JSON renders the record the way the host reports its last exception.
func (r *Record) JSON() string {
	frames := r.Frames
	if frames == nil {
		frames = []Frame{}
	}
	b, err := json.Marshal(struct {
		Message string  `json:"message"`
		Frames  []Frame `json:"frames"`
	}{r.Message, frames})
	if err != nil {
		return fmt.Sprintf(`{"message":%q,"frames":[]}`, r.Message)
	}
	return string(b)
}

// Stack renders the frames one per line, innermost first.
func (r *Record) Stack() string {
	var sb strings.Builder
	for _, f := range r.Frames {
		name := f.Function
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&sb, "    at %s (%s:%d:%d)\n", name, f.Source, f.Line, f.Column)
	}
	return sb.String()
}

// Hook receives every dispatched record.
type Hook func(*Record) error

//---------------------
// DISPATCHER
//---------------------

// Dispatcher holds the current error hook and the last record seen.
type Dispatcher struct {
	mu          sync.Mutex
	hook        Hook
	last        *Record
	dispatching bool
}

// SetHook replaces the hook. Nil removes it.
func (d *Dispatcher) SetHook(h Hook) {
	d.mu.Lock()
	d.hook = h
	d.mu.Unlock()
}

// Dispatch stores r as the last record and runs the hook once.
// A dispatch started from inside the hook is recorded but not delivered.
func (d *Dispatcher) Dispatch(r *Record) error {
	if r == nil {
		return nil
	}
	d.mu.Lock()
	d.last = r
	if d.dispatching {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrReentrant, r.Message)
	}
	h := d.hook
	if h == nil {
		d.mu.Unlock()
		return nil
	}
	d.dispatching = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.dispatching = false
		d.mu.Unlock()
	}()
	return h(r)
}

// Last returns the most recent record or nil.
func (d *Dispatcher) Last() *Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Reset forgets the last record.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
}
