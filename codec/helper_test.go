package codec_test

import (
	"testing"

	"github.com/rskv-p/jsbridge/codec"
	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	msg := codec.NewMessage("string")
	msg.Set("str", "abc")
	msg.Set("int", 123)
	msg.Set("bytes", []byte("xyz"))
	msg.Set("float", 3.5)
	msg.Set("bool", true)
	msg.Set("obj", map[string]any{"x": 1})

	assert.Equal(t, "abc", msg.GetString("str"))
	assert.Equal(t, "123", msg.GetString("int"))
	assert.Equal(t, "xyz", msg.GetString("bytes"))
	assert.Equal(t, "3.5", msg.GetString("float"))
	assert.Equal(t, "true", msg.GetString("bool"))
	assert.Contains(t, msg.GetString("obj"), `"x":1`)
}

func TestGetStrings(t *testing.T) {
	msg := codec.NewMessage("strings")
	msg.Set("native", []string{"a", "b"})
	msg.Set("decoded", []any{"x", 1.5, true})
	msg.Set("single", "solo")

	assert.Equal(t, []string{"a", "b"}, msg.GetStrings("native"))
	assert.Equal(t, []string{"x", "1.5", "true"}, msg.GetStrings("decoded"))
	assert.Equal(t, []string{"solo"}, msg.GetStrings("single"))
	assert.Nil(t, msg.GetStrings("missing"))
}
