package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryOptions {
	return RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "retries retryable errors", failures: 2, err: &RetryableError{Err: errBoom, Retryable: true}, wantCalls: 3},
		{name: "gives up after max attempts", failures: 5, err: &RetryableError{Err: errBoom, Retryable: true}, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "does not retry permanent errors", failures: 5, err: errBoom, wantCalls: 1, wantErr: errBoom},
		{name: "non retryable wrapper stops", failures: 5, err: &RetryableError{Err: errBoom, Retryable: false}, wantCalls: 1, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, fastRetry())

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save ledger", inner)

	assert.Equal(t, "could not save ledger: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}
