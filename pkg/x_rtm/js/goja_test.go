package js

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/fault"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
	"github.com/rskv-p/jsbridge/snapshot"
)

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/mock_runtime.js")
	require.NoError(t, err)
	return string(b)
}

// newIsolate builds an isolate with the fixture already loaded.
func newIsolate(t *testing.T, opts Options) *Isolate {
	t.Helper()
	if opts.Print == nil {
		opts.Print = func(string) {}
	}
	iso, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, iso.Execute("mock_runtime.js", fixture(t)))
	t.Cleanup(iso.Dispose)
	return iso
}

func hasFrame(frames []fault.Frame, source string) bool {
	for _, f := range frames {
		if f.Source == source {
			return true
		}
	}
	return false
}

func TestInitializesCorrectly(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "1 + 2"))
	assert.NotEmpty(t, iso.ID())
	assert.Empty(t, iso.LastException())
}

func TestCanCallFunction(t *testing.T) {
	var printed []string
	iso := newIsolate(t, Options{Print: func(s string) { printed = append(printed, s) }})

	require.NoError(t, iso.Execute("a.js", "if (CanCallFunction() !== 'foo') throw Error();"))
	assert.Equal(t, []string{"Hello world from foo"}, printed)
}

func TestErrorsCorrectly(t *testing.T) {
	iso := newIsolate(t, Options{})

	err := iso.Execute("a.js", "throw Error()")
	require.Error(t, err)

	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "Error", rec.Message)
	assert.Equal(t, "a.js", rec.Source)
	assert.Equal(t, 1, rec.Line)

	var last struct {
		Message string        `json:"message"`
		Frames  []fault.Frame `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(iso.LastException()), &last))
	assert.Equal(t, "Error", last.Message)
	assert.True(t, hasFrame(last.Frames, "a.js"))
}

func TestTypedArraySnapshots(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "TypedArraySnapshots()"))

	img, err := iso.Snapshot()
	require.NoError(t, err)
	data, err := snapshot.Encode(img)
	require.NoError(t, err)
	restored, err := snapshot.Decode(data)
	require.NoError(t, err)

	// The fixture is replayed from the image, not executed again.
	iso2, err := New(Options{Image: restored, Print: func(string) {}})
	require.NoError(t, err)
	defer iso2.Dispose()
	require.NoError(t, iso2.Execute("a.js", "TypedArraySnapshots()"))

	img2, err := iso2.Snapshot()
	require.NoError(t, err)
	require.Len(t, img2.Blobs, 1)
	assert.Equal(t, []byte{1, 3, 3, 7}, img2.Blobs[0].Data)
}

func TestRestorePrefersArena(t *testing.T) {
	img := &snapshot.Image{
		Version: snapshot.Version,
		Scripts: []snapshot.Script{{
			Name:   "init.js",
			Source: `const b = deno.blob("k", new Uint8Array([0, 0])); globalThis.first = () => b[0];`,
		}},
		Blobs: []snapshot.Blob{{ID: "k", Data: []byte{9, 8}}},
	}
	iso, err := New(Options{Image: img})
	require.NoError(t, err)
	defer iso.Dispose()

	require.NoError(t, iso.Execute("a.js", "if (first() !== 9) throw Error('arena ignored');"))
}

func TestRestoreFailure(t *testing.T) {
	img := &snapshot.Image{
		Version: snapshot.Version,
		Scripts: []snapshot.Script{{Name: "bad.js", Source: "throw Error('boom')"}},
	}
	_, err := New(Options{Image: img})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.js")
}

func TestSnapshotBug(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "SnapshotBug()"))
}

func TestSendSuccess(t *testing.T) {
	var printed []string
	iso := newIsolate(t, Options{Print: func(s string) { printed = append(printed, s) }})
	require.NoError(t, iso.Execute("a.js", "SendSuccess()"))

	resp, err := iso.Send(channel.Buf("abc"))
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, []string{"SendSuccess: ok"}, printed)
}

func TestSendByteLength(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "SendByteLength()"))

	_, err := iso.Send(channel.Buf("abc"))
	require.NoError(t, err)

	_, err = iso.Send(channel.Buf("abcd"))
	require.Error(t, err)
	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Contains(t, rec.Message, "assertion failed")
	assert.Equal(t, "mock_runtime.js", rec.Source)
}

func TestSendNoCallback(t *testing.T) {
	iso := newIsolate(t, Options{})
	_, err := iso.Send(channel.Buf("abc"))
	assert.ErrorIs(t, err, channel.ErrNoHandler)
	assert.Empty(t, iso.LastException())
}

func TestSendResponse(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "RecvEcho()"))

	resp, err := iso.Send(channel.Buf("hi"))
	require.NoError(t, err)
	assert.Equal(t, channel.Buf("echo:hi"), resp)
}

func TestRecvReturnEmpty(t *testing.T) {
	var got []string
	iso := newIsolate(t, Options{Recv: func(b channel.Buf) (channel.Buf, error) {
		got = append(got, string(b))
		return nil, nil
	}})

	require.NoError(t, iso.Execute("a.js", "RecvReturnEmpty()"))
	assert.Equal(t, []string{"abc", "abc"}, got)
}

func TestRecvReturnBar(t *testing.T) {
	count := 0
	iso := newIsolate(t, Options{Recv: func(b channel.Buf) (channel.Buf, error) {
		count++
		assert.Equal(t, channel.Buf("abc"), b)
		return channel.Buf("bar"), nil
	}})

	require.NoError(t, iso.Execute("a.js", "RecvReturnBar()"))
	assert.Equal(t, 1, count)
}

func TestRecvWithoutHostHandler(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", "if (deno.send(new Uint8Array([1])) !== null) throw Error();"))
}

func TestRecvHostError(t *testing.T) {
	iso := newIsolate(t, Options{Recv: func(channel.Buf) (channel.Buf, error) {
		return nil, errors.New("upstream down")
	}})

	err := iso.Execute("a.js", "deno.send(new Uint8Array([1]))")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSetRecv(t *testing.T) {
	iso := newIsolate(t, Options{})
	h := func(channel.Buf) (channel.Buf, error) { return channel.Buf("bar"), nil }
	require.NoError(t, iso.SetRecv(h))
	assert.ErrorIs(t, iso.SetRecv(h), channel.ErrDuplicateRegistration)

	require.NoError(t, iso.Execute("a.js", "RecvReturnBar()"))
}

func TestDoubleRecvFails(t *testing.T) {
	iso := newIsolate(t, Options{})
	err := iso.Execute("a.js", "DoubleRecvFails()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestErrorHandling(t *testing.T) {
	count := 0
	var printed []string
	iso := newIsolate(t, Options{
		Print: func(s string) { printed = append(printed, s) },
		Recv: func(b channel.Buf) (channel.Buf, error) {
			count++
			assert.Equal(t, channel.Buf{42}, b)
			return nil, nil
		},
	})

	err := iso.Execute("a.js", "ErrorHandling()")
	require.Error(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"line 3 col 1"}, printed)

	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "helloworld.js", rec.Source)
	assert.Equal(t, 3, rec.Line)
	assert.Equal(t, 1, rec.Column)
	assert.Equal(t, "ReferenceError: notdefined is not defined", rec.Message)
	require.True(t, hasFrame(rec.Frames, "helloworld.js"))
	for _, f := range rec.Frames {
		assert.Equal(t, f.Source == "helloworld.js", f.IsEval, f.Source)
	}
}

func TestErrorHandlingIndented(t *testing.T) {
	var got []channel.Buf
	var printed []string
	iso := newIsolate(t, Options{
		Print: func(s string) { printed = append(printed, s) },
		Recv: func(b channel.Buf) (channel.Buf, error) {
			got = append(got, b)
			return nil, nil
		},
	})

	err := iso.Execute("a.js", "ErrorHandlingIndented()")
	require.Error(t, err)
	assert.Equal(t, []channel.Buf{{43}}, got)
	assert.Equal(t, []string{"line 3 col 2"}, printed)

	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, 2, rec.Column)
}

func TestSyntaxErrorLocation(t *testing.T) {
	var args []any
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.vm.Set("record", func(call goja.FunctionCall) goja.Value {
		for _, a := range call.Arguments {
			args = append(args, a.Export())
		}
		return goja.Undefined()
	}))
	require.NoError(t, iso.Execute("hook.js", "onerror = (m, s, l, c) => record(m, s, l, c)"))

	err := iso.Execute("bad.js", "var x = ;")
	require.Error(t, err)

	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "bad.js", rec.Source)
	assert.Equal(t, 1, rec.Line)
	assert.Equal(t, 9, rec.Column)
	assert.True(t, strings.HasPrefix(rec.Message, "SyntaxError: Unexpected token"), rec.Message)
	assert.NotContains(t, rec.Message, "SyntaxError: SyntaxError")
	require.NotEmpty(t, rec.Frames)

	require.Len(t, args, 4)
	assert.Equal(t, rec.Message, args[0])
	assert.Equal(t, "bad.js", args[1])
	assert.EqualValues(t, 1, args[2])
	assert.EqualValues(t, 9, args[3])

	var out struct {
		Frames []map[string]any `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(iso.LastException()), &out))
	require.NotEmpty(t, out.Frames)
	assert.EqualValues(t, 1, out.Frames[0]["line"])
}

func TestOnErrorThrows(t *testing.T) {
	var seen []*fault.Record
	iso := newIsolate(t, Options{OnFault: func(r *fault.Record) { seen = append(seen, r) }})

	err := iso.Execute("a.js", "onerror = () => { throw Error('hook'); }; missing()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onerror")

	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "ReferenceError: missing is not defined", rec.Message)
	assert.Len(t, seen, 1)
}

func TestEval(t *testing.T) {
	iso := newIsolate(t, Options{})

	tests := []struct {
		name string
		src  string
	}{
		{"non-string", "if (eval(42) !== 42) throw Error();"},
		{"value", "if (eval('1 + 2') !== 3) throw Error();"},
		{"globals", "eval('globalThis.fromEval = 5'); if (fromEval !== 5) throw Error();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, iso.Execute(tt.name+".js", tt.src))
		})
	}
}

func TestEvalIsGlobalScope(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("scope.js", `
		var x = "global";
		function f() { var x = "local"; return eval("x"); }
		if (f() !== "global") throw Error(f());
	`))

	err := iso.Execute("local.js", `(function () { var onlyLocal = 1; return eval("onlyLocal"); })()`)
	var rec *fault.Record
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "ReferenceError: onlyLocal is not defined", rec.Message)
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, EvalSource, sourceURL("1 + 1"))
	assert.Equal(t, "x.js", sourceURL("a()\n//# sourceURL=x.js"))
	assert.Equal(t, "y.js", sourceURL("//@ sourceURL=x.js\nb()\n//# sourceURL=y.js\n"))
}

func TestEncodeDecode(t *testing.T) {
	iso := newIsolate(t, Options{})
	require.NoError(t, iso.Execute("a.js", `
		const u8 = deno.encode("héllo");
		if (!(u8 instanceof Uint8Array) || u8.length !== 6) throw Error("encode");
		if (deno.decode(u8) !== "héllo") throw Error("decode");
		if (deno.decode(u8.buffer) !== "héllo") throw Error("decode buffer");
		if (deno.decode(u8.subarray(1, 3)) !== "é") throw Error("decode view");
	`))
}

func TestMaxMessageSize(t *testing.T) {
	iso := newIsolate(t, Options{
		MaxMessageSize: 2,
		Recv:           func(channel.Buf) (channel.Buf, error) { return nil, nil },
	})
	require.NoError(t, iso.Execute("a.js", "SendSuccess()"))

	_, err := iso.Send(channel.Buf("abc"))
	assert.ErrorIs(t, err, channel.ErrMessageTooLarge)

	err = iso.Execute("b.js", "deno.send(new Uint8Array([1, 2, 3]))")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestExecuteContextInterrupt(t *testing.T) {
	iso := newIsolate(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := iso.ExecuteContext(ctx, "loop.js", "for (;;) {}")
	require.Error(t, err)
	var ie *goja.InterruptedError
	assert.True(t, errors.As(err, &ie))

	require.NoError(t, iso.ExecuteContext(context.Background(), "a.js", "1"))
}

func TestSnapshotRecordsSuccessfulScripts(t *testing.T) {
	iso, err := New(Options{})
	require.NoError(t, err)
	defer iso.Dispose()

	require.NoError(t, iso.Execute("one.js", "var one = 1"))
	require.Error(t, iso.Execute("bad.js", "throw Error()"))
	require.NoError(t, iso.Execute("two.js", "var two = one + 1"))

	img, err := iso.Snapshot()
	require.NoError(t, err)
	require.Len(t, img.Scripts, 2)
	assert.Equal(t, "one.js", img.Scripts[0].Name)
	assert.Equal(t, "two.js", img.Scripts[1].Name)
}

func TestRestoreReplaysScripts(t *testing.T) {
	src, err := New(Options{})
	require.NoError(t, err)
	defer src.Dispose()

	require.NoError(t, src.Execute("boot.js", `deno.send(new Uint8Array([7]))`))
	require.NoError(t, src.Execute("recv.js", `var hits = 0; deno.recv(() => { hits++; });`))
	_, err = src.Send(channel.Buf{1})
	require.NoError(t, err)

	img, err := src.Snapshot()
	require.NoError(t, err)

	var sent []channel.Buf
	record := func(b channel.Buf) (channel.Buf, error) {
		sent = append(sent, b)
		return nil, nil
	}

	// top-level sends fire again on restore
	restored, err := New(Options{Image: img, Recv: record})
	require.NoError(t, err)
	defer restored.Dispose()
	assert.Equal(t, []channel.Buf{{7}}, sent)

	// state changed by recv callbacks after boot is not part of the image
	require.NoError(t, restored.Execute("check.js", `if (hits !== 0) throw Error(String(hits))`))

	sent = nil
	late, err := New(Options{Image: img})
	require.NoError(t, err)
	defer late.Dispose()
	require.NoError(t, late.SetRecv(record))
	assert.Empty(t, sent)
}

func TestDispose(t *testing.T) {
	iso, err := New(Options{})
	require.NoError(t, err)
	iso.Dispose()

	assert.ErrorIs(t, iso.Execute("a.js", "1"), x_rtm.ErrDisposed)
	_, err = iso.Send(channel.Buf("x"))
	assert.ErrorIs(t, err, x_rtm.ErrDisposed)
	_, err = iso.Snapshot()
	assert.ErrorIs(t, err, x_rtm.ErrDisposed)

	require.NoError(t, iso.Init())
	require.NoError(t, iso.Execute("a.js", "1"))
}
