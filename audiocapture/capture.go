// Package audiocapture provides microphone capture via PortAudio.
// The default input device is opened mono at a fixed sample rate and
// raw sample blocks are delivered on a buffered channel.
package audiocapture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tylertzm/KnowledgeOS/metrics"
)

// ErrAcquisition wraps any failure to acquire the input device.
// Acquisition is never retried automatically; the caller decides
// whether to try again.
var ErrAcquisition = errors.New("audio device acquisition failed")

// blockQueue is the capacity of the block channel. At the default
// 1024 frames per buffer this holds about four seconds of audio.
const blockQueue = 64

// Config holds configuration for microphone capture.
type Config struct {
	SampleRate      int // default 16000 Hz
	FramesPerBuffer int // device callback block size, default 1024
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		FramesPerBuffer: 1024,
	}
}

// Capture owns the microphone stream. Start and Stop are idempotent;
// a stopped Capture can be started again.
type Capture struct {
	mu sync.RWMutex

	sampleRate      int
	framesPerBuffer int

	active bool
	stream *portaudio.Stream
	blocks chan []float32
}

// New creates a capture instance. The device is not touched until
// Start.
func New(cfg Config) *Capture {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = 1024
	}
	return &Capture{
		sampleRate:      cfg.SampleRate,
		framesPerBuffer: cfg.FramesPerBuffer,
	}
}

// Start acquires the default input device and begins capture. Calling
// Start while already active is a no-op. Any device failure is
// reported wrapped in ErrAcquisition.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize: %v", ErrAcquisition, err)
	}

	// The channel must exist before the stream starts; the callback
	// reads these fields without locking, which is safe because no
	// callback runs before stream.Start or after stream.Stop.
	c.blocks = make(chan []float32, blockQueue)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.framesPerBuffer, c.onDeviceBlock)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: open stream: %v", ErrAcquisition, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: start stream: %v", ErrAcquisition, err)
	}

	c.stream = stream
	c.active = true
	return nil
}

// Stop ends capture and releases the device. It is idempotent and
// synchronous: once Stop returns, no further block is delivered and
// the block channel is closed.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil
	}

	// Stop blocks until in-flight callbacks have finished, so closing
	// the channel afterwards cannot race a send.
	err := c.stream.Stop()
	if cerr := c.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}

	close(c.blocks)
	c.stream = nil
	c.active = false

	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	return nil
}

// Active reports whether the device is currently captured.
func (c *Capture) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

// Blocks returns the channel of raw sample blocks for the current
// activation. The channel is closed by Stop.
func (c *Capture) Blocks() <-chan []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks
}

// onDeviceBlock runs on the PortAudio callback thread. It must not
// block: when the channel is full the oldest block is discarded so
// the consumer always sees the freshest audio.
func (c *Capture) onDeviceBlock(in []float32) {
	block := make([]float32, len(in))
	copy(block, in)
	c.deliver(block)
}

func (c *Capture) deliver(block []float32) {
	metrics.BlockCaptured()
	select {
	case c.blocks <- block:
		return
	default:
	}

	select {
	case <-c.blocks:
		metrics.BlockDropped()
	default:
	}
	select {
	case c.blocks <- block:
	default:
		metrics.BlockDropped()
	}
}
