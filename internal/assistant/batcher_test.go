package assistant

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBatcherFlushesAtThreshold(t *testing.T) {
	now := time.Now()
	b := NewTokenBatcher(now)
	require.Equal(t, initialBatchSize, b.BatchSize())

	for i := 0; i < initialBatchSize-1; i++ {
		batch, ok := b.Feed(fmt.Sprintf("t%d ", i), now)
		require.False(t, ok)
		require.Empty(t, batch)
	}

	batch, ok := b.Feed("t4 ", now.Add(200*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, "t0 t1 t2 t3 t4 ", batch)
}

func TestBatcherGrowsUnderFastArrival(t *testing.T) {
	now := time.Now()
	b := NewTokenBatcher(now)

	// flushes 20ms apart keep growing the threshold by 2 up to the cap
	for size := initialBatchSize; b.BatchSize() < maxBatchSize; {
		for i := 0; i < size; i++ {
			b.Feed("x", now)
		}
		now = now.Add(20 * time.Millisecond)
		prev := size
		size = b.BatchSize()
		require.LessOrEqual(t, size, maxBatchSize)
		require.Greater(t, size, prev)
	}
	require.Equal(t, maxBatchSize, b.BatchSize())

	// further fast flushes stay pinned at the cap
	for i := 0; i < maxBatchSize; i++ {
		b.Feed("x", now)
	}
	require.Equal(t, maxBatchSize, b.BatchSize())
}

func TestBatcherShrinksUnderSlowArrival(t *testing.T) {
	now := time.Now()
	b := NewTokenBatcher(now)

	for b.BatchSize() > minBatchSize {
		size := b.BatchSize()
		now = now.Add(400 * time.Millisecond)
		for i := 0; i < size; i++ {
			b.Feed("x", now)
		}
		require.Equal(t, size-1, b.BatchSize())
	}

	// floor holds
	now = now.Add(400 * time.Millisecond)
	for i := 0; i < minBatchSize; i++ {
		b.Feed("x", now)
	}
	require.Equal(t, minBatchSize, b.BatchSize())
}

func TestBatcherSteadyGapKeepsSize(t *testing.T) {
	now := time.Now()
	b := NewTokenBatcher(now)

	now = now.Add(200 * time.Millisecond)
	for i := 0; i < initialBatchSize; i++ {
		b.Feed("x", now)
	}
	require.Equal(t, initialBatchSize, b.BatchSize())
}

func TestBatcherPreservesTokenOrder(t *testing.T) {
	now := time.Now()
	b := NewTokenBatcher(now)

	tokens := strings.Split("the quick brown fox jumps over the lazy dog", "")
	var got strings.Builder
	for _, tok := range tokens {
		now = now.Add(time.Millisecond)
		if batch, ok := b.Feed(tok, now); ok {
			got.WriteString(batch)
		}
	}
	if batch, ok := b.Flush(now); ok {
		got.WriteString(batch)
	}

	require.Equal(t, strings.Join(tokens, ""), got.String())
}

func TestBatcherFlushEmpty(t *testing.T) {
	b := NewTokenBatcher(time.Now())
	_, ok := b.Flush(time.Now())
	require.False(t, ok)
}
