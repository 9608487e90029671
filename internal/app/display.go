package app

import (
	"log/slog"

	"github.com/tylertzm/KnowledgeOS/internal/types"
	"github.com/tylertzm/KnowledgeOS/metrics"
)

// onStateChange renders state transitions to the log. It stands in
// for a graphical surface: mode switches and connectivity changes are
// announced, text updates are kept at debug level.
func (a *App) onStateChange(snap types.Snapshot) {
	a.mu.Lock()
	prev := a.lastMode
	a.lastMode = snap.Mode
	a.mu.Unlock()

	if snap.Mode != prev {
		metrics.ModeTransition(string(snap.Mode))
		switch snap.Mode {
		case types.ModeOffline:
			slog.Warn("backend offline", "previous_mode", prev)
		default:
			slog.Info("mode changed", "mode", snap.Mode, "previous_mode", prev)
		}
	}

	slog.Debug("session state",
		"mode", snap.Mode,
		"connected", snap.Connected,
		"transcription", snap.Transcription,
		"response", snap.Response,
	)
}
