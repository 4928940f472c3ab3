package constant_test

import (
	"testing"

	"github.com/rskv-p/jsbridge/constant"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	errs := []error{
		constant.ErrBadRequest,
		constant.ErrNotFound,
		constant.ErrEmptyMessage,
		constant.ErrMissingHandler,
	}
	for _, err := range errs {
		assert.Error(t, err)
		assert.NotEmpty(t, err.Error())
	}
}

func TestConstants_Values(t *testing.T) {
	assert.Equal(t, "start", constant.MessageTypeStart)
	assert.Equal(t, "codeFetch", constant.MessageTypeCodeFetch)
	assert.Equal(t, "JSB_", constant.EnvPrefix)
	assert.NotEqual(t, constant.SubjectInbound, constant.SubjectOutbound)
}
