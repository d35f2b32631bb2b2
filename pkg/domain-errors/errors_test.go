package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_WalksChain(t *testing.T) {
	inner := New(CodeNotFound, "record missing")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeForbidden))
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAlreadyVerified, CodeOf(New(CodeAlreadyVerified, "done")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(cause, CodeInternal, "store unavailable")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "internal_error")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("verify record: %w", New(CodeAlreadyVerified, "record already verified"))
	assert.True(t, HasCode(err, CodeAlreadyVerified))
}
