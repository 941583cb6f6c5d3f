package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewExternalError("vector search failed", fmt.Errorf("connection refused"))
	assert.Equal(t, "EXTERNAL: vector search failed: connection refused", err.Error())
}

func TestTypeOf_WrappedChain(t *testing.T) {
	base := NewNotFoundError("item abc not found")
	wrapped := fmt.Errorf("resolve source: %w", base)

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("boom")))
	assert.False(t, IsNotFound(nil))
}
