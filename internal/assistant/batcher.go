package assistant

import (
	"strings"
	"time"
)

// Batching bounds. Size grows under fast token arrival to cut event volume
// and shrinks under slow arrival to cut perceived latency.
const (
	initialBatchSize = 5
	minBatchSize     = 2
	maxBatchSize     = 20
	fastFlushGap     = 100 * time.Millisecond
	slowFlushGap     = 300 * time.Millisecond
)

// TokenBatcher accumulates streamed tokens and releases them in adaptively
// sized batches. It is a plain state machine: callers supply the clock, so
// it tests without a live stream. Not safe for concurrent use; one batcher
// serves one stream.
type TokenBatcher struct {
	buf       []string
	batchSize int
	lastFlush time.Time
}

func NewTokenBatcher(now time.Time) *TokenBatcher {
	return &TokenBatcher{
		batchSize: initialBatchSize,
		lastFlush: now,
	}
}

// Feed buffers a token. When the buffer reaches the current threshold it
// returns the concatenated batch; tokens are always released in arrival
// order.
func (b *TokenBatcher) Feed(token string, now time.Time) (batch string, ok bool) {
	b.buf = append(b.buf, token)
	if len(b.buf) < b.batchSize {
		return "", false
	}
	return b.flush(now), true
}

// Flush drains whatever remains, regardless of threshold. Used at stream
// end.
func (b *TokenBatcher) Flush(now time.Time) (batch string, ok bool) {
	if len(b.buf) == 0 {
		return "", false
	}
	return b.flush(now), true
}

// BatchSize exposes the current threshold.
func (b *TokenBatcher) BatchSize() int { return b.batchSize }

func (b *TokenBatcher) flush(now time.Time) string {
	out := strings.Join(b.buf, "")
	b.buf = b.buf[:0]

	gap := now.Sub(b.lastFlush)
	b.lastFlush = now
	switch {
	case gap < fastFlushGap:
		if b.batchSize+2 <= maxBatchSize {
			b.batchSize += 2
		} else {
			b.batchSize = maxBatchSize
		}
	case gap > slowFlushGap:
		if b.batchSize-1 >= minBatchSize {
			b.batchSize--
		}
	}
	return out
}
