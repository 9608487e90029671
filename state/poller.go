package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/tylertzm/KnowledgeOS/internal/types"
	"github.com/tylertzm/KnowledgeOS/metrics"
)

// StatusClient fetches the server-side session state.
type StatusClient interface {
	Status(ctx context.Context) (types.StatusResult, error)
}

// Poller periodically fetches server state and applies it to the
// session. It runs independently of the audio pipeline: a slow or
// failing upload never delays a poll, and vice versa.
type Poller struct {
	client   StatusClient
	session  *Session
	interval time.Duration
}

// NewPoller creates a poller that updates session every interval.
func NewPoller(client StatusClient, session *Session, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		session:  session,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. The first poll happens
// immediately so a fresh session learns its state without waiting a
// full interval.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	start := time.Now()
	status, err := p.client.Status(ctx)
	metrics.ObservePoll(time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		wasConnected := p.session.Snapshot().Connected
		p.session.ApplyDisconnected()
		if wasConnected {
			slog.Warn("lost connection to backend", "error", err)
		} else {
			slog.Debug("backend still unreachable", "error", err)
		}
		return
	}

	if !p.session.Snapshot().Connected {
		slog.Info("connected to backend", "mode", status.Mode)
	}
	p.session.ApplyStatus(status)
}
