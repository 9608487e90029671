package voicestream

import (
	"context"
	"sync"
	"time"

	"github.com/tylertzm/KnowledgeOS/metrics"
)

// Throttle spaces out chunk transmissions: at most one send starts
// per interval, and only the most recent chunk offered while waiting
// survives. Replaced chunks are dropped, never queued.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	pending  []float32
	has      bool
	wake     chan struct{}
}

// NewThrottle creates a throttle with the given minimum spacing
// between send starts.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// Offer hands a chunk to the throttle, replacing any chunk still
// waiting for the send window.
func (t *Throttle) Offer(chunk []float32) {
	t.mu.Lock()
	if t.has {
		metrics.ChunkDropped()
	}
	t.pending = chunk
	t.has = true
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Throttle) take() ([]float32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.has {
		return nil, false
	}
	chunk := t.pending
	t.pending = nil
	t.has = false
	return chunk, true
}

// Reset discards any pending chunk without counting it as a drop.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.pending = nil
	t.has = false
	t.mu.Unlock()
}

// Run delivers pending chunks to send until ctx is cancelled. Sends
// run synchronously on this goroutine; a send that outlasts the
// interval simply delays the next one, it is never overlapped.
func (t *Throttle) Run(ctx context.Context, send func(context.Context, []float32)) error {
	var lastStart time.Time
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.wake:
		}

		if !lastStart.IsZero() {
			if wait := t.interval - time.Since(lastStart); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}

		// Take late so offers made during the wait replace the
		// pending chunk.
		chunk, ok := t.take()
		if !ok {
			continue
		}

		lastStart = time.Now()
		send(ctx, chunk)
	}
}
