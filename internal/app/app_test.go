package app

import (
	"testing"

	"github.com/tylertzm/KnowledgeOS/config"
	"github.com/tylertzm/KnowledgeOS/internal/types"
)

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			APIBase:          "http://localhost:8000",
			SendIntervalMS:   1000,
			PollIntervalMS:   3000,
			RequestTimeoutMS: 5000,
		},
		Audio: config.AudioConfig{
			SampleRate:      16000,
			ChunkSeconds:    4,
			OverlapSeconds:  2,
			FramesPerBuffer: 1024,
		},
		Storage: config.StorageConfig{
			Path:            t.TempDir(),
			HistoryTTLHours: 1,
		},
		LogLevel: "info",
	}
}

func TestNewWiresComponents(t *testing.T) {
	a, err := New(testAppConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	snap := a.Session().Snapshot()
	if snap.Mode != types.ModeTranscription {
		t.Errorf("initial mode = %q, want Transcription", snap.Mode)
	}
	if snap.Connected {
		t.Error("fresh app should not report connected")
	}
}

func TestRecordResultStoresHistory(t *testing.T) {
	a, err := New(testAppConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	a.recordResult(types.AudioResult{Transcription: "note to self", Response: "noted"})

	recent, err := a.store.RecentTranscripts(1)
	if err != nil {
		t.Fatalf("RecentTranscripts() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("stored %d transcripts, want 1", len(recent))
	}
	if recent[0].Transcription != "note to self" || recent[0].Response != "noted" {
		t.Errorf("stored transcript = %+v", recent[0])
	}
	if recent[0].Timestamp == 0 {
		t.Error("transcript timestamp not set")
	}
}

func TestOnStateChangeTracksMode(t *testing.T) {
	a, err := New(testAppConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	a.onStateChange(types.Snapshot{Mode: types.ModeAI, Connected: true})
	a.mu.Lock()
	last := a.lastMode
	a.mu.Unlock()
	if last != types.ModeAI {
		t.Errorf("lastMode = %q, want AI", last)
	}

	a.onStateChange(types.Snapshot{Mode: types.ModeOffline})
	a.mu.Lock()
	last = a.lastMode
	a.mu.Unlock()
	if last != types.ModeOffline {
		t.Errorf("lastMode = %q, want OFFLINE", last)
	}
}
