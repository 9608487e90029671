// Package metrics exposes Prometheus instrumentation for the client.
// Collectors live on the default registry; Serve starts the optional
// /metrics listener.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	blocksCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_audio_blocks_captured_total",
		Help: "Total number of raw audio blocks received from the microphone",
	})
	blocksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_audio_blocks_dropped_total",
		Help: "Total number of raw audio blocks dropped on channel overflow",
	})
	chunksAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_chunks_assembled_total",
		Help: "Total number of complete audio chunks assembled",
	})
	chunksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_chunks_dropped_total",
		Help: "Total number of assembled chunks replaced before dispatch",
	})

	dispatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_dispatches_total",
		Help: "Total number of audio chunk uploads started",
	})
	dispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_dispatch_failures_total",
		Help: "Total number of audio chunk uploads that failed",
	})
	dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowledgeos_dispatch_duration_seconds",
		Help:    "Duration of audio chunk uploads",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	polls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_status_polls_total",
		Help: "Total number of status polls",
	})
	pollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgeos_status_poll_failures_total",
		Help: "Total number of failed status polls",
	})
	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowledgeos_status_poll_duration_seconds",
		Help:    "Duration of status polls",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "knowledgeos_connected",
		Help: "Whether the last status poll succeeded (1) or failed (0)",
	})
	modeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgeos_mode_transitions_total",
		Help: "Total number of mode transitions by target mode",
	}, []string{"mode"})
)

// BlockCaptured counts one raw block from the device.
func BlockCaptured() { blocksCaptured.Inc() }

// BlockDropped counts one raw block lost to channel overflow.
func BlockDropped() { blocksDropped.Inc() }

// ChunkAssembled counts one complete chunk.
func ChunkAssembled() { chunksAssembled.Inc() }

// ChunkDropped counts one chunk replaced while waiting for the send
// window.
func ChunkDropped() { chunksDropped.Inc() }

// ObserveDispatch records one upload attempt.
func ObserveDispatch(d time.Duration, err error) {
	dispatches.Inc()
	dispatchDuration.Observe(d.Seconds())
	if err != nil {
		dispatchFailures.Inc()
	}
}

// ObservePoll records one status poll and updates the connectivity
// gauge.
func ObservePoll(d time.Duration, err error) {
	polls.Inc()
	pollDuration.Observe(d.Seconds())
	if err != nil {
		pollFailures.Inc()
		connected.Set(0)
		return
	}
	connected.Set(1)
}

// ModeTransition counts a transition into the given mode.
func ModeTransition(mode string) {
	modeTransitions.WithLabelValues(mode).Inc()
}

// Serve runs the /metrics listener on addr until ctx is cancelled.
// An empty addr disables the listener and returns immediately.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("metrics listener started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
