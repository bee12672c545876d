package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(KindNotFound, "object x not found")
	b := New(KindNotFound, "object y not found")
	assert.True(t, stderrors.Is(a, b))

	c := New(KindDuplicate, "dup")
	assert.False(t, stderrors.Is(a, c))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("pq: duplicate key value")
	wrapped := Wrap(KindSuperseded, "version already exists", cause)
	assert.Equal(t, cause, stderrors.Unwrap(wrapped))
}

func TestStatusCodeMapping(t *testing.T) {
	assert.Equal(t, 400, New(KindInputValidation, "x").StatusCode())
	assert.Equal(t, 404, New(KindNotFound, "x").StatusCode())
	assert.Equal(t, 409, New(KindDuplicate, "x").StatusCode())
	assert.Equal(t, 412, New(KindVersionValidation, "x").StatusCode())
}
