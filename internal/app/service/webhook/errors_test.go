package webhook

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreWrapFriendly(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrStoreUnavailable)
	require.True(t, errors.Is(err, ErrStoreUnavailable))
	require.True(t, Retryable(err))
}

func TestRetryable_PermanentClasses(t *testing.T) {
	require.False(t, Retryable(ErrInvalidSignature))
	require.False(t, Retryable(ErrMalformedPayload))
	require.False(t, Retryable(ErrMissingAppUserID))
	require.False(t, Retryable(fmt.Errorf("%w: FOO", ErrUnknownEventType)))
	require.False(t, Retryable(fmt.Errorf("%w: U1", ErrAccountNotFound)))
}
