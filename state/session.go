// Package state tracks the client-side view of a voice session and
// reconciles it with the backend.
package state

import (
	"log/slog"
	"sync"

	"github.com/tylertzm/KnowledgeOS/internal/types"
)

// Listener receives a snapshot after every state change.
type Listener func(types.Snapshot)

// Session holds the mutable session state. All mutation goes through
// the Apply methods; readers take snapshots.
type Session struct {
	mu            sync.RWMutex
	mode          types.Mode
	transcription string
	response      string
	connected     bool
	inputLevel    float64

	listeners []Listener
}

// NewSession creates a session in the initial state: Transcription
// mode, not yet connected. Mode is never restored from disk.
func NewSession() *Session {
	return &Session{mode: types.ModeTranscription}
}

// OnChange registers a listener. Listeners are called synchronously
// with a snapshot copy, outside the session lock.
func (s *Session) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() types.Snapshot {
	return types.Snapshot{
		Mode:          s.mode,
		Transcription: s.transcription,
		Response:      s.response,
		Connected:     s.connected,
		InputLevel:    s.inputLevel,
	}
}

// ApplyStatus applies a successful status poll. The server view is
// authoritative: it overwrites mode and texts and marks the session
// connected, clearing any prior Offline state.
func (s *Session) ApplyStatus(status types.StatusResult) {
	s.mu.Lock()
	if status.Mode.Valid() {
		s.mode = status.Mode
	} else {
		slog.Warn("ignoring unknown mode from server", "mode", status.Mode)
	}
	s.transcription = status.Transcription
	s.response = status.Response
	s.connected = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// ApplyDisconnected records a failed status poll: the session is
// marked offline while the last known texts are preserved. Recovery
// happens automatically on the next successful poll.
func (s *Session) ApplyDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mode = types.ModeOffline
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// ApplyAudio applies the backend's reply to an uploaded chunk. Texts
// are overwritten when present; mode is only changed through trigger
// phrases found in the new transcription.
func (s *Session) ApplyAudio(result types.AudioResult) {
	s.mu.Lock()
	if result.Transcription != "" {
		s.transcription = result.Transcription
	}
	if result.Response != "" {
		s.response = result.Response
	}
	if mode, ok := DetectMode(result.Transcription); ok && mode != s.mode {
		slog.Info("mode trigger detected", "mode", mode)
		s.mode = mode
		s.response = ""
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// SetInputLevel records the RMS of the latest captured block.
func (s *Session) SetInputLevel(level float64) {
	s.mu.Lock()
	s.inputLevel = level
	s.mu.Unlock()
}

func (s *Session) notify(snap types.Snapshot) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}
