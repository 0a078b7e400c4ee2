package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"config", fmt.Errorf("load: %w", ErrConfigurationError), "ConfigurationError"},
		{"account", fmt.Errorf("get account: %w: %w", ErrAccountUnavailable, ErrTimeout), "AccountUnavailable"},
		{"order", fmt.Errorf("submit: %w", ErrOrderSubmissionFailed), "OrderSubmissionFailed"},
		{"data", fmt.Errorf("bars: %w", ErrDataUnavailable), "DataUnavailable"},
		{"other", errors.New("boom"), "Unhandled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorType(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("x: %w", ErrRateLimited)))
	assert.True(t, IsTransient(fmt.Errorf("x: %w", ErrConnectionFailed)))
	assert.True(t, IsTransient(ErrTimeout))
	assert.False(t, IsTransient(ErrAuthenticationFailed))
	assert.False(t, IsTransient(nil))
}
