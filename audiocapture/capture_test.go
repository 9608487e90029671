package audiocapture

import (
	"testing"
)

func TestNewAppliesDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantRate int
	}{
		{"defaults", Config{}, 16000},
		{"explicit_rate", Config{SampleRate: 48000}, 48000},
		{"default_config", DefaultConfig(), 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg)
			if c.SampleRate() != tt.wantRate {
				t.Errorf("SampleRate() = %d, want %d", c.SampleRate(), tt.wantRate)
			}
			if c.Active() {
				t.Error("new capture should not be active")
			}
		})
	}
}

func TestStopIdempotent(t *testing.T) {
	c := New(DefaultConfig())

	// Stop without start should be safe
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}

	// Double stop should be safe
	if err := c.Stop(); err != nil {
		t.Fatalf("double Stop: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	c := New(DefaultConfig())
	if err := c.Start(); err != nil {
		t.Skipf("no audio device available: %v", err)
	}

	if !c.Active() {
		t.Error("capture should be active after Start")
	}

	// Second start is a no-op
	if err := c.Start(); err != nil {
		t.Errorf("second Start: %v", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Active() {
		t.Error("capture should not be active after Stop")
	}

	// Channel is closed after Stop
	if _, ok := <-c.Blocks(); ok {
		// Buffered blocks may remain; drain until closed.
		for range c.Blocks() {
		}
	}
}

func TestDeliverDropsOldestOnOverflow(t *testing.T) {
	c := New(DefaultConfig())
	c.blocks = make(chan []float32, 2)

	c.deliver([]float32{1})
	c.deliver([]float32{2})
	c.deliver([]float32{3})

	first := <-c.blocks
	if first[0] != 2 {
		t.Errorf("oldest block should be dropped, got %v first", first)
	}
	second := <-c.blocks
	if second[0] != 3 {
		t.Errorf("newest block should survive, got %v", second)
	}
}
