// file: jsbridge/pkg/x_rtm/js/bindings.go
package js

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/snapshot"
)

// ----------------------------------------------------
// Global "deno" object and eval
// ----------------------------------------------------

var sourceURLRe = regexp.MustCompile(`(?m)^[ \t]*//[#@][ \t]*sourceURL=[ \t]*(\S+)[ \t]*$`)

// EvalSource is the script name used for eval'd code without a sourceURL.
const EvalSource = "<eval>"

func (i *Isolate) install() error {
	deno := i.vm.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"print":  i.jsPrint,
		"recv":   i.jsRecv,
		"send":   i.jsSend,
		"blob":   i.jsBlob,
		"encode": i.jsEncode,
		"decode": i.jsDecode,
	} {
		if err := deno.Set(name, fn); err != nil {
			return err
		}
	}
	if err := i.vm.Set("deno", deno); err != nil {
		return err
	}
	return i.vm.Set("eval", i.jsEval)
}

// deno.print(...args)
func (i *Isolate) jsPrint(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for n, a := range call.Arguments {
		parts[n] = a.String()
	}
	i.opts.Print(strings.Join(parts, " "))
	return goja.Undefined()
}

// deno.recv(cb)
func (i *Isolate) jsRecv(call goja.FunctionCall) goja.Value {
	cb, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(i.vm.NewTypeError("deno.recv: callback must be a function"))
	}
	vm := i.vm
	err := i.inbound.Register(func(b channel.Buf) (channel.Buf, error) {
		ret, err := cb(goja.Undefined(), vm.ToValue(vm.NewArrayBuffer(b)))
		if err != nil {
			return nil, err
		}
		if out, ok := i.bytesOf(ret); ok {
			return out, nil
		}
		return nil, nil
	})
	if err != nil {
		panic(i.vm.NewGoError(err))
	}
	return goja.Undefined()
}

// deno.send(u8) -> Uint8Array | null
func (i *Isolate) jsSend(call goja.FunctionCall) goja.Value {
	b, ok := i.bytesOf(call.Argument(0))
	if !ok {
		panic(i.vm.NewTypeError("deno.send: expected Uint8Array or ArrayBuffer"))
	}
	resp, err := i.outbound.Send(b)
	switch {
	case errors.Is(err, channel.ErrNoHandler):
		return goja.Null()
	case err != nil:
		panic(i.vm.NewGoError(err))
	case resp == nil:
		return goja.Null()
	}
	return i.newUint8Array(resp)
}

// deno.blob(id, init?) -> Uint8Array
func (i *Isolate) jsBlob(call goja.FunctionCall) goja.Value {
	id := snapshot.BlobID(call.Argument(0).String())
	if id == "" {
		panic(i.vm.NewTypeError("deno.blob: id is required"))
	}
	if data, ok := i.arena.Get(id); ok {
		return i.newUint8Array(data)
	}

	init, ok := i.bytesOf(call.Argument(1))
	if !ok {
		return goja.Null()
	}
	if err := i.arena.Put(id, init); err != nil {
		panic(i.vm.NewGoError(err))
	}
	return i.newUint8Array(init)
}

// deno.encode(str) -> Uint8Array
func (i *Isolate) jsEncode(call goja.FunctionCall) goja.Value {
	return i.newUint8Array([]byte(call.Argument(0).String()))
}

// deno.decode(u8) -> string
func (i *Isolate) jsDecode(call goja.FunctionCall) goja.Value {
	b, ok := i.bytesOf(call.Argument(0))
	if !ok {
		panic(i.vm.NewTypeError("deno.decode: expected Uint8Array or ArrayBuffer"))
	}
	if !utf8.Valid(b) {
		panic(i.vm.NewTypeError("deno.decode: invalid UTF-8"))
	}
	return i.vm.ToValue(string(b))
}

// eval(src) evaluates src as its own unit named by a trailing sourceURL comment.
func (i *Isolate) jsEval(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	src, ok := arg.Export().(string)
	if !ok {
		return arg
	}

	name := sourceURL(src)
	i.evals[name] = struct{}{}
	i.sources[name] = src

	v, err := i.vm.RunScript(name, src)
	if err != nil {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			panic(ex)
		}
		panic(i.vm.NewGoError(err))
	}
	return v
}

func sourceURL(src string) string {
	m := sourceURLRe.FindAllStringSubmatch(src, -1)
	if len(m) == 0 {
		return EvalSource
	}
	return m[len(m)-1][1]
}

// ----------------------------------------------------
// Byte conversion
// ----------------------------------------------------

// bytesOf copies the bytes of an ArrayBuffer or typed array view.
func (i *Isolate) bytesOf(v goja.Value) (channel.Buf, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	switch x := v.Export().(type) {
	case []byte:
		return channel.Clone(x), true
	case goja.ArrayBuffer:
		return channel.Clone(x.Bytes()), true
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	buf := obj.Get("buffer")
	if buf == nil {
		return nil, false
	}
	ab, ok := buf.Export().(goja.ArrayBuffer)
	if !ok {
		return nil, false
	}
	off, n := intProp(obj, "byteOffset"), intProp(obj, "byteLength")
	data := ab.Bytes()
	if off < 0 || n < 0 || off+n > len(data) {
		return nil, false
	}
	return channel.Clone(data[off : off+n]), true
}

func intProp(obj *goja.Object, name string) int {
	v := obj.Get(name)
	if v == nil {
		return -1
	}
	return int(v.ToInteger())
}

func (i *Isolate) newUint8Array(b []byte) goja.Value {
	ab := i.vm.NewArrayBuffer(channel.Clone(b))
	obj, err := i.vm.New(i.vm.Get("Uint8Array"), i.vm.ToValue(ab))
	if err != nil {
		panic(i.vm.NewGoError(err))
	}
	return obj
}
