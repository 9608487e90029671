package voicestream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tylertzm/KnowledgeOS/internal/types"
	"github.com/tylertzm/KnowledgeOS/metrics"
	"github.com/tylertzm/KnowledgeOS/state"
)

// Source delivers raw microphone blocks. Start must be idempotent and
// Stop must close the block channel.
type Source interface {
	Start() error
	Stop() error
	Blocks() <-chan []float32
}

// Dispatcher uploads one chunk and returns the backend's reply.
type Dispatcher interface {
	SendAudio(ctx context.Context, samples []float32) (types.AudioResult, error)
}

// Config holds pipeline parameters in samples and wall time.
type Config struct {
	ChunkSamples   int
	OverlapSamples int
	SendInterval   time.Duration
}

// Service runs the capture pipeline: blocks from the source are
// assembled into chunks, throttled, and dispatched. Results are
// applied to the session unless the activation they started under
// has ended.
type Service struct {
	source     Source
	dispatcher Dispatcher
	session    *state.Session

	assembler *Assembler
	throttle  *Throttle

	// onResult, when set, observes every applied audio result.
	onResult func(types.AudioResult)

	// generation advances on every Start and Stop; dispatch results
	// carry the generation they started under and are discarded when
	// it no longer matches.
	generation atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService wires a pipeline from source, dispatcher and session.
func NewService(cfg Config, source Source, dispatcher Dispatcher, session *state.Session) *Service {
	return &Service{
		source:     source,
		dispatcher: dispatcher,
		session:    session,
		assembler:  NewAssembler(cfg.ChunkSamples, cfg.OverlapSamples),
		throttle:   NewThrottle(cfg.SendInterval),
	}
}

// OnResult registers an observer for applied audio results. Must be
// called before Start.
func (s *Service) OnResult(fn func(types.AudioResult)) {
	s.onResult = fn
}

// Start activates the pipeline. A source acquisition failure aborts
// the activation and is returned to the caller; nothing is retried.
// Starting an already running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := s.source.Start(); err != nil {
		return fmt.Errorf("activate source: %w", err)
	}

	gen := s.generation.Add(1)
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	blocks := s.source.Blocks()
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.consume(blocks)
	}()
	go func() {
		defer s.wg.Done()
		_ = s.throttle.Run(runCtx, func(ctx context.Context, chunk []float32) {
			s.dispatch(ctx, gen, chunk)
		})
	}()

	s.running = true
	slog.Info("voice pipeline started")
	return nil
}

// Stop deactivates the pipeline: the source is released, the partial
// chunk and any pending send are discarded, and results of requests
// still in flight will be ignored. Stop is idempotent and returns
// once the pipeline goroutines have exited.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.generation.Add(1)
	err := s.source.Stop()
	s.cancel()
	s.wg.Wait()

	s.assembler.Reset()
	s.throttle.Reset()
	s.running = false

	slog.Info("voice pipeline stopped")
	if err != nil {
		return fmt.Errorf("stop source: %w", err)
	}
	return nil
}

// Running reports whether the pipeline is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// consume drains the block channel until the source closes it.
func (s *Service) consume(blocks <-chan []float32) {
	for block := range blocks {
		s.session.SetInputLevel(calculateRMS(block))
		s.assembler.Append(block)
		for _, chunk := range s.assembler.Poll() {
			metrics.ChunkAssembled()
			s.throttle.Offer(chunk)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, gen uint64, chunk []float32) {
	start := time.Now()
	result, err := s.dispatcher.SendAudio(ctx, chunk)
	metrics.ObserveDispatch(time.Since(start), err)

	if err != nil {
		// Dropped on the floor; the stream continues and the next
		// chunk gets a fresh attempt.
		slog.Warn("chunk dispatch failed", "error", err)
		return
	}

	if s.generation.Load() != gen {
		slog.Debug("discarding result from ended activation")
		return
	}

	s.session.ApplyAudio(result)
	if s.onResult != nil && (result.Transcription != "" || result.Response != "") {
		s.onResult(result)
	}
}
