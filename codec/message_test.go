package codec_test

import (
	"errors"
	"testing"

	"github.com/rskv-p/jsbridge/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := codec.NewMessage("test")
	assert.Equal(t, "test", msg.Type)
	assert.NotNil(t, msg.GetBodyMap())
	assert.Zero(t, msg.CmdID)
}

func TestNewReply(t *testing.T) {
	req := codec.NewCommand(7, "start")
	res := codec.NewReply(req)
	assert.Equal(t, uint32(7), res.CmdID)
	assert.Equal(t, "start", res.Type)
	assert.Empty(t, res.Body)
}

func TestSetAndGet(t *testing.T) {
	msg := codec.NewMessage("data")
	msg.Set("foo", "bar")
	val, ok := msg.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", val)
	assert.Equal(t, "bar", msg.GetString("foo"))

	_, ok = (&codec.Message{}).Get("nothing")
	assert.False(t, ok)
}

func TestSetError(t *testing.T) {
	msg := codec.NewMessage("err")

	msg.SetError(errors.New("failed"))
	assert.Equal(t, "failed", msg.Error)

	msg.SetError(nil)
	assert.Empty(t, msg.Error)
}

func TestSetBody(t *testing.T) {
	type start struct {
		Cwd  string   `json:"cwd"`
		Argv []string `json:"argv"`
	}

	msg := codec.NewMessage("start")
	require.NoError(t, msg.SetBody(start{Cwd: "/tmp", Argv: []string{"a", "b"}}))
	assert.Equal(t, "/tmp", msg.GetString("cwd"))
	assert.Equal(t, []string{"a", "b"}, msg.GetStrings("argv"))

	assert.Error(t, msg.SetBody([]int{1}))
	require.NoError(t, msg.SetBody(nil))
	assert.Nil(t, msg.Body)
}

func TestEncodeDecode(t *testing.T) {
	msg := codec.NewCommand(42, "codeFetch")
	msg.Set("moduleSpecifier", "./dep.js")

	b, err := msg.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmdId":42,"type":"codeFetch","body":{"moduleSpecifier":"./dep.js"}}`, string(b))

	back, err := codec.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), back.CmdID)
	assert.Equal(t, "./dep.js", back.GetString("moduleSpecifier"))
}

func TestDecodeErrors(t *testing.T) {
	_, err := codec.Decode(nil)
	assert.ErrorIs(t, err, codec.ErrEmptyMessage)

	_, err = codec.Decode([]byte(`{"cmdId":1}`))
	assert.ErrorIs(t, err, codec.ErrMissingType)

	_, err = codec.Decode([]byte(`not json`))
	assert.Error(t, err)
}
