package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()

	wrapped := WrapError(ErrInstanceNotFound, "instance i-123 does not exist", errors.New("record not found"))

	assert.True(t, errors.Is(wrapped, ErrInstanceNotFound))
	assert.False(t, errors.Is(wrapped, ErrSnapshotNotFound))

	// 经过 fmt.Errorf 包装后仍然可以判断
	chained := fmt.Errorf("describe instance: %w", wrapped)
	assert.True(t, errors.Is(chained, ErrInstanceNotFound))
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	raw := errors.New("dial tcp: connection refused")
	wrapped := WrapError(ErrTransport, "publish failed", raw)

	assert.Equal(t, raw, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, raw))
}

func TestWrapErrorKeepsCodeAndStatus(t *testing.T) {
	t.Parallel()

	wrapped := WrapErrorf(ErrQuotaExceeded, nil, "quota exceeded for tenant %s", "t-1")

	assert.Equal(t, ErrQuotaExceeded.Code, wrapped.Code)
	assert.Equal(t, ErrQuotaExceeded.HTTPStatus, wrapped.HTTPStatus)
	assert.Contains(t, wrapped.Message, "t-1")
}

func TestErrorResponse(t *testing.T) {
	t.Parallel()

	resp := NewErrorResponse("req-1", ErrInstanceNotFound, ErrQuotaExceeded)

	assert.Len(t, resp.Errors, 2)
	assert.Contains(t, resp.Error(), "req-1")
	assert.Contains(t, resp.Error(), "InstanceNotFound")
}
