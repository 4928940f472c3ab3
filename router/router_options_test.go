package router_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rskv-p/jsbridge/codec"
	"github.com/rskv-p/jsbridge/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContextKey is a private type to avoid context key collisions (SA1029).
type testContextKey struct{}

func TestOptionsDefaults(t *testing.T) {
	opts := router.WithDefaults()

	assert.Equal(t, "default", opts.Name)
	assert.Nil(t, opts.NotFound)
	assert.Nil(t, opts.OnError)
	assert.Nil(t, opts.ContextDecorator)
	assert.Nil(t, opts.Logger)
	assert.Nil(t, opts.Wrappers)
}

func TestOptionBuilders(t *testing.T) {
	var calledNotFound bool
	var calledErrorHook bool
	var calledContextDecorator bool

	opts := router.WithDefaults()

	options := []router.Option{
		router.Name("custom"),
		router.OnNotFound(func(ctx context.Context, req, res *codec.Message) *router.Error {
			calledNotFound = true
			return &router.Error{StatusCode: 404, Message: "not found"}
		}),
		router.OnErrorHook(func(ctx context.Context, req *codec.Message, err *router.Error) {
			calledErrorHook = true
		}),
		router.WithLogger(zerolog.Nop()),
		router.WithContextDecorator(func(ctx context.Context, req *codec.Message) context.Context {
			calledContextDecorator = true
			return context.WithValue(ctx, testContextKey{}, true)
		}),
		router.UseMiddleware(
			func(next router.Handler) router.Handler {
				return func(ctx context.Context, req, res *codec.Message) *router.Error {
					return next(ctx, req, res)
				}
			},
		),
	}

	for _, o := range options {
		o(&opts)
	}

	assert.Equal(t, "custom", opts.Name)
	assert.NotNil(t, opts.NotFound)
	assert.NotNil(t, opts.OnError)
	assert.NotNil(t, opts.Logger)
	assert.Len(t, opts.Wrappers, 1)

	req := codec.NewMessage("request")
	err := opts.NotFound(context.Background(), req, codec.NewReply(req))
	assert.True(t, calledNotFound)
	assert.Equal(t, 404, err.StatusCode)

	opts.OnError(context.Background(), req, &router.Error{StatusCode: 500})
	assert.True(t, calledErrorHook)

	ctx := opts.ContextDecorator(context.Background(), req)
	assert.True(t, calledContextDecorator)
	assert.Equal(t, true, ctx.Value(testContextKey{}))
}

func TestServeUsesContextDecorator(t *testing.T) {
	r := router.NewRouter(router.WithContextDecorator(func(ctx context.Context, _ *codec.Message) context.Context {
		return context.WithValue(ctx, testContextKey{}, "decorated")
	}))
	var seen any
	r.AddFunc("ctx", func(ctx context.Context, req, res *codec.Message) *router.Error {
		seen = ctx.Value(testContextKey{})
		return nil
	})
	r.Serve(context.Background(), codec.NewMessage("ctx"))
	assert.Equal(t, "decorated", seen)
}

func TestRecoverMiddleware(t *testing.T) {
	r := router.NewRouter(router.UseMiddleware(router.Recover("test")))
	r.AddFunc("boom", func(ctx context.Context, req, res *codec.Message) *router.Error {
		panic("kaboom")
	})
	res := r.Serve(context.Background(), codec.NewMessage("boom"))
	assert.Contains(t, res.Error, "panic: kaboom")
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := router.NewRouter(router.UseMiddleware(router.Logging(l)))
	r.AddFunc("ok", func(ctx context.Context, req, res *codec.Message) *router.Error { return nil })
	r.AddFunc("bad", func(ctx context.Context, req, res *codec.Message) *router.Error {
		return router.Errorf(418, "teapot %d", 1)
	})

	r.Serve(context.Background(), codec.NewCommand(5, "ok"))
	r.Serve(context.Background(), codec.NewCommand(6, "bad"))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"type":"ok"`)
	assert.Contains(t, out, `"cmd_id":6`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, "teapot 1")
}
