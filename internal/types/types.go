// Package types provides shared type definitions for the application.
package types

// Mode identifies how the backend interprets incoming speech.
type Mode string

const (
	// ModeTranscription is the default mode: plain speech-to-text.
	ModeTranscription Mode = "Transcription"
	// ModeAI routes transcribed speech through the assistant.
	ModeAI Mode = "AI"
	// ModeWebSearch answers transcribed speech with a web search.
	ModeWebSearch Mode = "WebSearch"
	// ModeOffline is reported locally while the backend is unreachable.
	ModeOffline Mode = "OFFLINE"
)

// Valid reports whether m is one of the server-assignable modes.
// ModeOffline is client-local and never sent or parsed from the wire.
func (m Mode) Valid() bool {
	switch m {
	case ModeTranscription, ModeAI, ModeWebSearch:
		return true
	}
	return false
}

// AudioResult is the backend's reply to an uploaded audio chunk.
// Both fields are optional; an empty transcription means the chunk
// carried no recognizable speech.
type AudioResult struct {
	Transcription string `json:"transcription,omitempty"`
	Response      string `json:"response,omitempty"`
}

// StatusResult is the backend's reply to a status poll.
type StatusResult struct {
	Mode          Mode   `json:"mode"`
	Transcription string `json:"transcription"`
	Response      string `json:"response"`
}

// Snapshot is an immutable copy of the client-side session state,
// delivered to change listeners.
type Snapshot struct {
	Mode          Mode    `json:"mode"`
	Transcription string  `json:"transcription"`
	Response      string  `json:"response"`
	Connected     bool    `json:"connected"`
	InputLevel    float64 `json:"inputLevel"` // RMS of the latest captured block, 0-1
}

// Transcript is one stored transcription/response pair.
type Transcript struct {
	Transcription string `json:"transcription"`
	Response      string `json:"response,omitempty"`
	Timestamp     int64  `json:"timestamp"` // Unix timestamp in milliseconds
}
