package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("Error without cause", func(t *testing.T) {
		err := New(ErrCodeNotFound, "session not found")
		assert.Equal(t, "NOT_FOUND: session not found", err.Error())
	})

	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("unique violation")
		err := DuplicateOpenSession(cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestConstructors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := NotFound("session")
		assert.Equal(t, ErrCodeNotFound, err.Code)
		assert.Equal(t, "session not found", err.Message)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput("kind", "bogus")
		assert.Equal(t, ErrCodeInvalidInput, err.Code)
	})

	t.Run("DuplicateOpenSession", func(t *testing.T) {
		err := DuplicateOpenSession(errors.New("pq: 23505"))
		assert.Equal(t, ErrCodeDuplicateOpenSession, err.Code)
	})

	t.Run("External", func(t *testing.T) {
		err := External("telegram", errors.New("timeout"))
		assert.Equal(t, ErrCodeExternal, err.Code)
		assert.Contains(t, err.Message, "telegram")
	})
}

func TestIsCode(t *testing.T) {
	t.Run("matches the code", func(t *testing.T) {
		err := Database(errors.New("boom"))
		assert.True(t, IsCode(err, ErrCodeDatabase))
		assert.False(t, IsCode(err, ErrCodeNotFound))
	})

	t.Run("sees through wrapping", func(t *testing.T) {
		err := fmt.Errorf("opening session: %w", DuplicateOpenSession(nil))
		assert.True(t, IsCode(err, ErrCodeDuplicateOpenSession))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, IsCode(errors.New("plain"), ErrCodeDatabase))
		assert.False(t, IsCode(nil, ErrCodeDatabase))
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns the AppError code", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("user")))
	})

	t.Run("defaults to internal for plain errors", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("wrapped: %w", Internal("oops")))
	require.True(t, ok)
	assert.Equal(t, ErrCodeInternal, appErr.Code)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
