// file: jsbridge/codec/message.go
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage = errors.New("codec: empty message")
	ErrMissingType  = errors.New("codec: missing type")
)

// Message is the command envelope exchanged between script and host.
// A reply carries the CmdID of the request it answers.
type Message struct {
	CmdID uint32         `json:"cmdId"`
	Type  string         `json:"type"`
	Body  map[string]any `json:"body,omitempty"`
	Error string         `json:"error,omitempty"`
}

// ----------------------------------------------------
// Constructors
// ----------------------------------------------------

// NewMessage creates a new empty message of a given type.
func NewMessage(t string) *Message {
	return &Message{Type: t, Body: make(map[string]any)}
}

// NewCommand creates a numbered request.
func NewCommand(cmdID uint32, t string) *Message {
	m := NewMessage(t)
	m.CmdID = cmdID
	return m
}

// NewReply creates the answer to req.
func NewReply(req *Message) *Message {
	return NewCommand(req.CmdID, req.Type)
}

// ----------------------------------------------------
// Body access
// ----------------------------------------------------

func (m *Message) GetBodyMap() map[string]any {
	if m.Body == nil {
		m.Body = make(map[string]any)
	}
	return m.Body
}

func (m *Message) Set(key string, value any) {
	m.GetBodyMap()[key] = value
}

func (m *Message) Get(key string) (any, bool) {
	v, ok := m.GetBodyMap()[key]
	return v, ok
}

// SetBody replaces the body with the JSON object form of obj.
func (m *Message) SetBody(obj any) error {
	if obj == nil {
		m.Body = nil
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("codec: body: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		return fmt.Errorf("codec: body is not an object: %w", err)
	}
	m.Body = body
	return nil
}

// ----------------------------------------------------
// Error
// ----------------------------------------------------

func (m *Message) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
	} else {
		m.Error = ""
	}
}

// Validate checks required fields.
func (m *Message) Validate() error {
	if m.Type == "" {
		return ErrMissingType
	}
	return nil
}

// ----------------------------------------------------
// Wire form
// ----------------------------------------------------

// Encode renders the message as JSON.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses and validates a JSON message.
func Decode(b []byte) (*Message, error) {
	if len(b) == 0 {
		return nil, ErrEmptyMessage
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
