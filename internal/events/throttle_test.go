package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleAllowWithinWindow(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	now := time.Now()

	require.True(t, th.Allow("u1", now))
	require.False(t, th.Allow("u1", now.Add(20*time.Millisecond)))
	require.False(t, th.Allow("u1", now.Add(49*time.Millisecond)))
	require.True(t, th.Allow("u1", now.Add(50*time.Millisecond)))
}

func TestThrottleKeysAreIndependent(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	now := time.Now()

	require.True(t, th.Allow("u1", now))
	require.True(t, th.Allow("u2", now))
	require.False(t, th.Allow("u1", now.Add(10*time.Millisecond)))
	require.False(t, th.Allow("u2", now.Add(10*time.Millisecond)))
}

func TestThrottleDeniedEmissionDoesNotResetWindow(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	now := time.Now()

	require.True(t, th.Allow("u1", now))
	require.False(t, th.Allow("u1", now.Add(40*time.Millisecond)))
	// the denied attempt must not push the window forward
	require.True(t, th.Allow("u1", now.Add(55*time.Millisecond)))
}
