// file: jsbridge/codec/helper.go
package codec

import (
	"encoding/json"
	"strconv"
)

// GetString returns the string value of key in body.
func (m *Message) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := toString(v)
	return s
}

// GetStrings returns a string list stored under key. JSON arrays decode as []any.
func (m *Message) GetStrings(key string) []string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, _ := toString(e)
			out = append(out, s)
		}
		return out
	default:
		s, _ := toString(x)
		return []string{s}
	}
}

// toString tries to convert any value to a string.
func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		b, err := json.Marshal(x)
		return string(b), err == nil
	}
}
