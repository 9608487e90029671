// Package app wires the client together: capture pipeline, status
// poller, local store and the terminal status surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tylertzm/KnowledgeOS/audiocapture"
	"github.com/tylertzm/KnowledgeOS/config"
	"github.com/tylertzm/KnowledgeOS/internal/types"
	"github.com/tylertzm/KnowledgeOS/metrics"
	"github.com/tylertzm/KnowledgeOS/remote"
	"github.com/tylertzm/KnowledgeOS/state"
	"github.com/tylertzm/KnowledgeOS/store"
	"github.com/tylertzm/KnowledgeOS/voicestream"
)

// App owns all long-lived components of the client.
type App struct {
	cfg     *config.Config
	store   *store.Store
	session *state.Session
	poller  *state.Poller

	pipeline *voicestream.Service

	mu       sync.Mutex
	lastMode types.Mode
}

// New loads the session identity and wires all components. The
// microphone is not touched until Run.
func New(cfg *config.Config) (*App, error) {
	dataDir, err := cfg.Storage.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sessionID, err := st.SessionID()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load session id: %w", err)
	}
	slog.Info("session loaded", "session_id", sessionID)

	client := remote.NewClient(cfg.Server.APIBase, sessionID, cfg.Server.RequestTimeout())
	session := state.NewSession()

	capture := audiocapture.New(audiocapture.Config{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	})

	pipeline := voicestream.NewService(voicestream.Config{
		ChunkSamples:   cfg.Audio.ChunkSamples(),
		OverlapSamples: cfg.Audio.OverlapSamples(),
		SendInterval:   cfg.Server.SendInterval(),
	}, capture, client, session)

	a := &App{
		cfg:      cfg,
		store:    st,
		session:  session,
		poller:   state.NewPoller(client, session, cfg.Server.PollInterval()),
		pipeline: pipeline,
		lastMode: types.ModeTranscription,
	}

	session.OnChange(a.onStateChange)
	pipeline.OnResult(a.recordResult)

	return a, nil
}

// Run activates the microphone pipeline and serves until ctx is
// cancelled. A device acquisition failure aborts the run; it is not
// retried.
func (a *App) Run(ctx context.Context) error {
	a.logRecentHistory()

	if err := a.pipeline.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.pipeline.Stop(); err != nil {
			slog.Error("stop pipeline", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.poller.Run(ctx)
	})
	g.Go(func() error {
		return metrics.Serve(ctx, a.cfg.Metrics.Addr)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the local store.
func (a *App) Close() error {
	return a.store.Close()
}

// Session exposes the session state, mainly for status inspection.
func (a *App) Session() *state.Session {
	return a.session
}

func (a *App) logRecentHistory() {
	recent, err := a.store.RecentTranscripts(5)
	if err != nil {
		slog.Warn("read transcript history", "error", err)
		return
	}
	if len(recent) == 0 {
		return
	}
	slog.Info("transcript history", "entries", len(recent), "latest", recent[0].Transcription)
}

func (a *App) recordResult(result types.AudioResult) {
	tr := types.Transcript{
		Transcription: result.Transcription,
		Response:      result.Response,
	}
	if err := a.store.AppendTranscript(tr, a.cfg.Storage.HistoryTTL()); err != nil {
		slog.Warn("store transcript", "error", err)
	}
}
