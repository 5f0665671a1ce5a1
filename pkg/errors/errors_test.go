package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	clone := Clone(ErrNoLessons, "requirements table is empty")
	assert.True(t, stdErrors.Is(clone, ErrNoLessons))
	assert.False(t, stdErrors.Is(clone, ErrNoPeriods))
	assert.Equal(t, "no lesson requirements configured", ErrNoLessons.Message)

	wrapped := fmt.Errorf("engine: %w", clone)
	assert.True(t, IsPrecondition(wrapped))
	assert.False(t, IsPrecondition(ErrInternal))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, ErrRunCancelled.Code, ErrRunCancelled.Status, ErrRunCancelled.Message)
	assert.True(t, stdErrors.Is(err, context.DeadlineExceeded))
	assert.True(t, stdErrors.Is(err, ErrRunCancelled))
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(stdErrors.New("disk full"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)

	typed := FromError(fmt.Errorf("ctx: %w", ErrSchedulerOff))
	assert.Equal(t, http.StatusServiceUnavailable, typed.Status)
}
