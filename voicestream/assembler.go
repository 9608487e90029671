// Package voicestream turns raw microphone blocks into fixed-duration
// overlapping chunks and ships them to the backend under a send-rate
// limit.
package voicestream

import "sync"

// Assembler accumulates raw sample blocks and cuts fixed-length
// chunks with a configured overlap between consecutive chunks.
type Assembler struct {
	mu        sync.Mutex
	buf       []float32
	chunkSize int
	overlap   int
	threshold int
}

// NewAssembler creates an assembler emitting chunks of chunkSize
// samples where each chunk begins with the last overlap samples of
// its predecessor. Requires 0 <= overlap < chunkSize.
func NewAssembler(chunkSize, overlap int) *Assembler {
	return &Assembler{
		buf:       make([]float32, 0, chunkSize+overlap),
		chunkSize: chunkSize,
		overlap:   overlap,
		threshold: chunkSize,
	}
}

// Append adds a block of samples to the rolling buffer. Block sizes
// are arbitrary; chunk contents only depend on the concatenated
// sample stream.
func (a *Assembler) Append(block []float32) {
	a.mu.Lock()
	a.buf = append(a.buf, block...)
	a.mu.Unlock()
}

// Poll cuts and returns all chunks the buffer has completed.
//
// The first chunk is cut as soon as a full chunk is buffered. After
// each cut the overlap tail is retained, and the next cut waits until
// a full chunk of fresh samples has accrued beyond that tail.
func (a *Assembler) Poll() [][]float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var chunks [][]float32
	for len(a.buf) >= a.threshold {
		chunk := make([]float32, a.chunkSize)
		copy(chunk, a.buf[:a.chunkSize])
		chunks = append(chunks, chunk)

		// Keep the overlap tail of the emitted chunk plus whatever
		// came after it.
		n := copy(a.buf, a.buf[a.chunkSize-a.overlap:])
		a.buf = a.buf[:n]
		a.threshold = a.chunkSize + a.overlap
	}
	return chunks
}

// Len returns the number of buffered samples.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Reset discards any partial buffer. A short remainder at
// deactivation is never flushed as a chunk.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = a.buf[:0]
	a.threshold = a.chunkSize
}
