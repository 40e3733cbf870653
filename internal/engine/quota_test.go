package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptQuota_WithinLimit(t *testing.T) {
	q := newAttemptQuota(MaxAttempts)

	for i := 0; i < MaxAttempts; i++ {
		require.NoError(t, q.take("rust/function:f"), "attempt %d should be allowed", i+1)
	}
	assert.Equal(t, MaxAttempts, q.used)
}

func TestAttemptQuota_ExceedsLimit(t *testing.T) {
	q := newAttemptQuota(2)
	require.NoError(t, q.take("rust/function:f"))
	require.NoError(t, q.take("rust/function:f"))

	err := q.take("rust/function:f")
	require.Error(t, err)

	var ae *AttemptsExceededError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "rust/function:f", ae.Intent)
	assert.Equal(t, 3, ae.Attempts)
	assert.Equal(t, 2, ae.Limit)
	assert.Equal(t, 2, q.used, "a refused attempt is not counted")
}

func TestIsAttemptsExceeded(t *testing.T) {
	err := &AttemptsExceededError{Intent: "x", Attempts: 3, Limit: 2}
	assert.True(t, IsAttemptsExceeded(err))
	assert.True(t, IsAttemptsExceeded(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsAttemptsExceeded(fmt.Errorf("other")))
	assert.Contains(t, err.Error(), "exceeded 2 emit+validate passes")
}
