package errors

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStoreError(ErrCodeStoreFailed, "failed to insert student", cause)

	assert.Equal(t, "STORE_FAILED: failed to insert student (caused by: disk full)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: student not found", NewNotFoundError(ErrCodeNotFound, "student not found", nil).Error())
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := NewValidationError(ErrCodeNotEligible, "CGPA below minimum", nil).WithContext("min_cgpa", 7.5)
	wrapped := fmt.Errorf("apply: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotEligible, appErr.Code)
	assert.Equal(t, 7.5, appErr.Context["min_cgpa"])
	assert.True(t, IsType(wrapped, ErrorTypeValidation))
	assert.False(t, IsType(wrapped, ErrorTypeNotFound))

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level       string
		expected    slog.Level
		expectError bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := ParseLevel(tt.level)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}

	_, err := New("loud")
	assert.Error(t, err)
}
