// file: jsbridge/router/router.go
package router

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/codec"
	"github.com/rskv-p/jsbridge/constant"
)

// Handler answers one command. res already carries the request's cmdId and type.
type Handler func(ctx context.Context, req *codec.Message, res *codec.Message) *Error

// HandlerWrapper wraps a Handler with middleware.
type HandlerWrapper func(Handler) Handler

// Error represents a handler error with status code.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Errorf builds an *Error.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{StatusCode: code, Message: fmt.Sprintf(format, args...)}
}

// Node represents a route registration keyed by command type.
type Node struct {
	ID                 string              `json:"id"`
	Handler            Handler             `json:"-"`
	ValidationRules    map[string][]string `json:"validation_rules,omitempty"`
	ValidationMessages map[string]string   `json:"validation_messages,omitempty"`
}

// Router dispatches command messages by type.
type Router struct {
	mu     sync.RWMutex
	routes map[string]*Node
	opts   Options
}

func NewRouter(opts ...Option) *Router {
	options := WithDefaults()
	for _, o := range opts {
		o(&options)
	}
	return &Router{
		routes: make(map[string]*Node),
		opts:   options,
	}
}

// Routes lists registered nodes ordered by id.
func (r *Router) Routes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Node, 0, len(r.routes))
	for _, n := range r.routes {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *Router) Add(n *Node) {
	if n == nil || n.ID == "" || n.Handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n.Handler = wrapWithValidation(n, Wrap(n.Handler, r.opts.Wrappers))
	r.routes[n.ID] = n
}

func (r *Router) AddMany(nodes []*Node) {
	for _, n := range nodes {
		r.Add(n)
	}
}

// AddFunc registers h for a command type without validation rules.
func (r *Router) AddFunc(id string, h Handler) {
	r.Add(&Node{ID: id, Handler: h})
}

func (r *Router) Dispatch(msg *codec.Message) (Handler, error) {
	if msg == nil {
		return nil, constant.ErrEmptyMessage
	}
	if msg.Type == "" {
		return nil, codec.ErrMissingType
	}
	r.mu.RLock()
	n, ok := r.routes[msg.Type]
	notFound := r.opts.NotFound
	r.mu.RUnlock()
	if !ok {
		if notFound != nil {
			return Handler(notFound), nil
		}
		return nil, fmt.Errorf("%w: %s", constant.ErrMissingHandler, msg.Type)
	}
	return r.wrapWithErrorHook(n.Handler), nil
}

func (r *Router) GetOptions() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

//---------------------
// SERVING
//---------------------

// Serve runs the handler for req and returns the reply. Failures are carried in reply.Error.
func (r *Router) Serve(ctx context.Context, req *codec.Message) *codec.Message {
	res := codec.NewReply(req)
	h, err := r.Dispatch(req)
	if err != nil {
		if l := r.GetOptions().Logger; l != nil {
			l.Warn().Err(err).Uint32("cmd_id", req.CmdID).Str("type", req.Type).Msg("dispatch failed")
		}
		res.SetError(err)
		return res
	}
	if dec := r.GetOptions().ContextDecorator; dec != nil {
		ctx = dec(ctx, req)
	}
	if herr := h(ctx, req, res); herr != nil {
		res.Error = herr.Message
	}
	return res
}

// Transport adapts the router to a channel handler speaking encoded messages.
func (r *Router) Transport(ctx context.Context) channel.Handler {
	return func(b channel.Buf) (channel.Buf, error) {
		req, err := codec.Decode(b)
		if err != nil {
			res := codec.NewMessage(constant.MessageTypeError)
			res.SetError(err)
			return res.Encode()
		}
		return r.Serve(ctx, req).Encode()
	}
}

//---------------------
// MIDDLEWARE
//---------------------

func Wrap(h Handler, wrappers []HandlerWrapper) Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		h = wrappers[i](h)
	}
	return h
}

func wrapWithValidation(n *Node, next Handler) Handler {
	if len(n.ValidationRules) == 0 {
		return next
	}
	return func(ctx context.Context, req *codec.Message, res *codec.Message) *Error {
		body := req.GetBodyMap()
		for field, rules := range n.ValidationRules {
			val, exists := body[field]
			for _, rule := range rules {
				switch {
				case rule == "required":
					if !exists || val == nil || val == "" {
						return &Error{StatusCode: constant.StatusBadRequest, Message: validationMsg(n, field, rule, fmt.Sprintf("Field '%s' is required", field))}
					}
				case strings.HasPrefix(rule, "min:"):
					if err := checkMin(val, strings.TrimPrefix(rule, "min:")); err != nil {
						return &Error{StatusCode: constant.StatusBadRequest, Message: validationMsg(n, field, rule, err.Error())}
					}
				case strings.HasPrefix(rule, "max:"):
					if err := checkMax(val, strings.TrimPrefix(rule, "max:")); err != nil {
						return &Error{StatusCode: constant.StatusBadRequest, Message: validationMsg(n, field, rule, err.Error())}
					}
				}
			}
		}
		return next(ctx, req, res)
	}
}

func validationMsg(n *Node, field, rule, fallback string) string {
	if n == nil || n.ValidationMessages == nil {
		return fallback
	}
	if msg, ok := n.ValidationMessages[field+"."+strings.SplitN(rule, ":", 2)[0]]; ok {
		return msg
	}
	if msg, ok := n.ValidationMessages[field]; ok {
		return msg
	}
	return fallback
}

func checkMin(val any, raw string) error {
	limit, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid min value: %s", raw)
	}
	switch v := val.(type) {
	case float64:
		if v < limit {
			return fmt.Errorf("must be >= %v", limit)
		}
	case int:
		if float64(v) < limit {
			return fmt.Errorf("must be >= %v", limit)
		}
	case string:
		if float64(len(v)) < limit {
			return fmt.Errorf("length must be >= %v", limit)
		}
	}
	return nil
}

func checkMax(val any, raw string) error {
	limit, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid max value: %s", raw)
	}
	switch v := val.(type) {
	case float64:
		if v > limit {
			return fmt.Errorf("must be <= %v", limit)
		}
	case int:
		if float64(v) > limit {
			return fmt.Errorf("must be <= %v", limit)
		}
	case string:
		if float64(len(v)) > limit {
			return fmt.Errorf("length must be <= %v", limit)
		}
	}
	return nil
}

func (r *Router) wrapWithErrorHook(h Handler) Handler {
	hook := r.opts.OnError
	if hook == nil {
		return h
	}
	return func(ctx context.Context, req *codec.Message, res *codec.Message) *Error {
		err := h(ctx, req, res)
		if err != nil {
			hook(ctx, req, err)
		}
		return err
	}
}
