package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ErrCodeInvalidInput, "need %d items", 4)
		assert.Equal(t, "INVALID_INPUT: need 4 items", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		err := Wrap(ErrCodeDecode, cause, "decode %q", "a.png")
		assert.Equal(t, `DECODE_FAILED: decode "a.png": boom`, err.Error())
		assert.True(t, errors.Is(err, cause))
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("render: %w", New(ErrCodeEncode, "png"))

	assert.True(t, Is(err, ErrCodeEncode))
	assert.False(t, Is(err, ErrCodeDecode))
	assert.False(t, Is(fmt.Errorf("plain"), ErrCodeEncode))
	assert.False(t, Is(fmt.Errorf("plain"), ""))

	nested := Wrap(ErrCodeDecode, fmt.Errorf("cell 2: %w", New(ErrCodeFileNotFound, "a.png")), "cell 2")
	assert.True(t, Is(nested, ErrCodeDecode))
	assert.True(t, Is(nested, ErrCodeFileNotFound))
	assert.Equal(t, ErrCodeDecode, GetCode(nested))
}

func TestIsContext(t *testing.T) {
	assert.True(t, IsContext(context.Canceled))
	assert.True(t, IsContext(fmt.Errorf("decode: %w", context.DeadlineExceeded)))
	assert.False(t, IsContext(New(ErrCodeDecode, "bad png")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInput, "no items"), http.StatusBadRequest},
		{New(ErrCodeTooLarge, "body"), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("cell 0: %w", New(ErrCodeDecode, "x")), http.StatusUnprocessableEntity},
		{New(ErrCodeNetwork, "x"), http.StatusUnprocessableEntity},
		{New(ErrCodeFileNotFound, "x"), http.StatusUnprocessableEntity},
		{New(ErrCodeEncode, "x"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("render: %w", context.Canceled), StatusClientClosedRequest},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNetwork, GetCode(Wrap(ErrCodeNetwork, fmt.Errorf("x"), "get")))
	assert.Equal(t, Code(""), GetCode(fmt.Errorf("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "no items", UserMessage(New(ErrCodeInvalidInput, "no items")))
	assert.Equal(t, "fetch: timeout", UserMessage(Wrap(ErrCodeNetwork, fmt.Errorf("timeout"), "fetch")))
	assert.Equal(t, "plain", UserMessage(fmt.Errorf("plain")))
}
