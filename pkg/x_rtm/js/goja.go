// file: jsbridge/pkg/x_rtm/js/goja.go

// Package js hosts scripts on goja behind the byte-buffer bridge.
package js

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/fault"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
	"github.com/rskv-p/jsbridge/snapshot"
)

// Options configures an Isolate.
type Options struct {
	Name           string                // label used in logs
	Recv           channel.Handler       // host side of deno.send
	Print          func(string)          // deno.print sink, stdout by default
	Image          *snapshot.Image       // restored before Init returns
	MaxMessageSize int                   // per-message limit in both directions, 0 = none
	OnFault        func(*fault.Record)   // observes every uncaught fault
	Logger         *zerolog.Logger
}

// Isolate is one goja runtime plus its bridge state.
type Isolate struct {
	id   string
	opts Options
	log  zerolog.Logger

	vm       *goja.Runtime
	inbound  *channel.Channel // script callback registered by deno.recv
	outbound *channel.Channel // host handler reached by deno.send
	faults   fault.Dispatcher
	arena    *snapshot.Arena
	scripts  []snapshot.Script
	sources  map[string]string   // unit name -> text, for fault columns
	evals    map[string]struct{} // unit names created by eval

	replaying bool
}

// Ensure Isolate implements the Runtime interface.
var _ x_rtm.Runtime = (*Isolate)(nil)

// New builds and initializes an isolate.
func New(opts Options) (*Isolate, error) {
	i := &Isolate{id: nuid.Next(), opts: opts}
	if i.opts.Name == "" {
		i.opts.Name = "isolate"
	}
	if i.opts.Print == nil {
		i.opts.Print = func(s string) { fmt.Fprintln(os.Stdout, s) }
	}
	l := x_log.New("x_rtm.js")
	if opts.Logger != nil {
		l = *opts.Logger
	}
	i.log = l.With().Str("isolate", i.opts.Name).Str("id", i.id).Logger()

	if err := i.Init(); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Isolate) ID() string { return i.id }

// Init prepares a fresh VM, installs the bridge and restores Options.Image.
func (i *Isolate) Init() error {
	var chOpts []channel.Option
	if i.opts.MaxMessageSize > 0 {
		chOpts = append(chOpts, channel.WithMaxSize(i.opts.MaxMessageSize))
	}

	i.vm = goja.New()
	i.inbound = channel.New("inbound", chOpts...)
	i.outbound = channel.New("outbound", chOpts...)
	i.arena = snapshot.NewArena()
	i.scripts = nil
	i.sources = make(map[string]string)
	i.evals = make(map[string]struct{})
	i.faults.Reset()
	i.faults.SetHook(i.callOnError)

	if i.opts.Recv != nil {
		if err := i.outbound.Register(i.opts.Recv); err != nil {
			return err
		}
	}
	if err := i.install(); err != nil {
		return fmt.Errorf("js: install bindings: %w", err)
	}
	if img := i.opts.Image; img != nil {
		if err := i.restore(img); err != nil {
			return err
		}
	}

	i.log.Debug().Int("scripts", len(i.scripts)).Int("blobs", i.arena.Len()).Msg("isolate initialized")
	return nil
}

func (i *Isolate) restore(img *snapshot.Image) error {
	arena, err := img.Arena()
	if err != nil {
		return fmt.Errorf("js: restore: %w", err)
	}
	i.arena = arena

	i.replaying = true
	defer func() { i.replaying = false }()
	for _, s := range img.Scripts {
		if err := i.Execute(s.Name, s.Source); err != nil {
			return fmt.Errorf("js: restore %s: %w", s.Name, err)
		}
	}
	i.scripts = append([]snapshot.Script(nil), img.Scripts...)
	return nil
}

// SetRecv registers the host handler for deno.send after construction.
func (i *Isolate) SetRecv(h channel.Handler) error {
	if i.vm == nil {
		return x_rtm.ErrDisposed
	}
	return i.outbound.Register(h)
}

//---------------------
// EXECUTION
//---------------------

// Execute evaluates one unit. Uncaught faults are dispatched to onerror and returned as *fault.Record.
func (i *Isolate) Execute(filename, source string) error {
	if i.vm == nil {
		return x_rtm.ErrDisposed
	}
	i.sources[filename] = source
	if _, err := i.vm.RunScript(filename, source); err != nil {
		return i.fail(err)
	}
	if !i.replaying {
		i.scripts = append(i.scripts, snapshot.Script{Name: filename, Source: source})
	}
	return nil
}

// ExecuteContext is Execute with the script interrupted when ctx ends.
func (i *Isolate) ExecuteContext(ctx context.Context, filename, source string) error {
	if i.vm == nil {
		return x_rtm.ErrDisposed
	}
	vm := i.vm
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer func() {
		if !stop() {
			vm.ClearInterrupt()
		}
	}()
	return i.Execute(filename, source)
}

// Send delivers b to the deno.recv callback and returns its response.
func (i *Isolate) Send(b channel.Buf) (channel.Buf, error) {
	if i.vm == nil {
		return nil, x_rtm.ErrDisposed
	}
	resp, err := i.inbound.Send(b)
	if err != nil {
		if errors.Is(err, channel.ErrNoHandler) || errors.Is(err, channel.ErrMessageTooLarge) {
			return nil, err
		}
		return nil, i.fail(err)
	}
	return resp, nil
}

// LastException returns the JSON form of the most recent fault, or "".
func (i *Isolate) LastException() string {
	if r := i.faults.Last(); r != nil {
		return r.JSON()
	}
	return ""
}

// Snapshot captures the scripts executed so far and the blob arena.
func (i *Isolate) Snapshot() (*snapshot.Image, error) {
	if i.vm == nil {
		return nil, x_rtm.ErrDisposed
	}
	return &snapshot.Image{
		Version: snapshot.Version,
		Created: time.Now().UTC(),
		Scripts: append([]snapshot.Script(nil), i.scripts...),
		Blobs:   i.arena.Blobs(),
	}, nil
}

// Dispose drops the VM. Later calls fail with x_rtm.ErrDisposed.
func (i *Isolate) Dispose() {
	if i.vm != nil {
		i.vm = nil
		i.log.Debug().Msg("isolate disposed")
	}
}

//---------------------
// FAULTS
//---------------------

func (i *Isolate) fail(err error) error {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return fmt.Errorf("js: %w", err)
	}

	rec := i.record(ex)
	i.log.Debug().
		Str("script", rec.Source).
		Int("line", rec.Line).
		Int("column", rec.Column).
		Msg(rec.Message)

	herr := i.faults.Dispatch(rec)
	if i.opts.OnFault != nil {
		i.opts.OnFault(rec)
	}
	if herr != nil {
		return errors.Join(rec, fmt.Errorf("onerror: %w", herr))
	}
	return rec
}

func (i *Isolate) record(ex *goja.Exception) *fault.Record {
	rec := &fault.Record{Cause: ex}
	if v := ex.Value(); v != nil {
		rec.Message = v.String()
	} else {
		rec.Message = ex.Error()
	}

	// goja puts call faults on the "(", report the callee instead
	rec.Frames = parseStack(ex.String())
	for n := range rec.Frames {
		f := &rec.Frames[n]
		if src, ok := i.sources[f.Source]; ok {
			f.Column = exprStart(src, f.Line, f.Column)
		}
		_, f.IsEval = i.evals[f.Source]
	}

	// syntax errors carry no frames, only a position inside the message
	if f, msg, ok := syntaxPosition(rec.Message); ok {
		_, f.IsEval = i.evals[f.Source]
		rec.Message = msg
		rec.Frames = append([]fault.Frame{f}, rec.Frames...)
	}

	for _, f := range rec.Frames {
		if f.Line > 0 {
			rec.Source, rec.Line, rec.Column = f.Source, f.Line, f.Column
			break
		}
	}
	return rec
}

// callOnError invokes the script's global onerror(message, source, line, col, error).
func (i *Isolate) callOnError(rec *fault.Record) error {
	fn, ok := goja.AssertFunction(i.vm.Get("onerror"))
	if !ok {
		return nil
	}
	errVal := goja.Undefined()
	var ex *goja.Exception
	if errors.As(rec.Cause, &ex) && ex.Value() != nil {
		errVal = ex.Value()
	}
	_, err := fn(goja.Undefined(),
		i.vm.ToValue(rec.Message),
		i.vm.ToValue(rec.Source),
		i.vm.ToValue(rec.Line),
		i.vm.ToValue(rec.Column),
		errVal,
	)
	return err
}
