package voicestream

import (
	"testing"
)

// seq returns n samples whose values encode their absolute position,
// so chunk contents can be checked by value.
func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func feed(a *Assembler, start, n int) [][]float32 {
	a.Append(seq(start, n))
	return a.Poll()
}

func TestAssemblerFirstChunk(t *testing.T) {
	a := NewAssembler(8, 4)

	chunks := feed(a, 0, 8)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if len(chunks[0]) != 8 {
		t.Fatalf("chunk length = %d, want 8", len(chunks[0]))
	}
	for i, v := range chunks[0] {
		if v != float32(i) {
			t.Fatalf("chunk[%d] = %v, want %d", i, v, i)
		}
	}
}

func TestAssemblerSecondChunkWaitsForFreshAudio(t *testing.T) {
	a := NewAssembler(8, 4)

	if got := feed(a, 0, 8); len(got) != 1 {
		t.Fatalf("after 8 samples: %d chunks, want 1", len(got))
	}
	// Half a chunk more: not enough for a second cut.
	if got := feed(a, 8, 4); len(got) != 0 {
		t.Fatalf("after 12 samples: %d extra chunks, want 0", len(got))
	}

	chunks := feed(a, 12, 4)
	if len(chunks) != 1 {
		t.Fatalf("after 16 samples: %d chunks, want 1", len(chunks))
	}
	// Second chunk covers positions 4..11.
	for i, v := range chunks[0] {
		if v != float32(4+i) {
			t.Fatalf("chunk[%d] = %v, want %d", i, v, 4+i)
		}
	}
}

func TestAssemblerOverlapEquality(t *testing.T) {
	a := NewAssembler(8, 4)

	all := feed(a, 0, 16)
	if len(all) != 2 {
		t.Fatalf("got %d chunks, want 2", len(all))
	}

	first, second := all[0], all[1]
	tail := first[len(first)-4:]
	head := second[:4]
	for i := range tail {
		if tail[i] != head[i] {
			t.Errorf("overlap mismatch at %d: tail %v, head %v", i, tail[i], head[i])
		}
	}
}

func TestAssemblerIrregularBlocks(t *testing.T) {
	// The same stream fed in different block sizes must yield the
	// same chunks.
	cut := func(blockSize int) [][]float32 {
		a := NewAssembler(8, 4)
		var chunks [][]float32
		for start := 0; start < 40; start += blockSize {
			n := blockSize
			if start+n > 40 {
				n = 40 - start
			}
			chunks = append(chunks, feed(a, start, n)...)
		}
		return chunks
	}

	want := cut(40)
	for _, blockSize := range []int{1, 3, 5, 7, 13} {
		got := cut(blockSize)
		if len(got) != len(want) {
			t.Fatalf("block size %d: %d chunks, want %d", blockSize, len(got), len(want))
		}
		for i := range got {
			for j := range got[i] {
				if got[i][j] != want[i][j] {
					t.Fatalf("block size %d: chunk %d sample %d = %v, want %v",
						blockSize, i, j, got[i][j], want[i][j])
				}
			}
		}
	}
}

func TestAssemblerZeroOverlap(t *testing.T) {
	a := NewAssembler(4, 0)

	chunks := feed(a, 0, 12)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[1][0] != 4 || chunks[2][0] != 8 {
		t.Errorf("chunks not contiguous: %v %v", chunks[1][0], chunks[2][0])
	}
}

func TestAssemblerPollWithoutAppend(t *testing.T) {
	a := NewAssembler(8, 4)
	if got := a.Poll(); len(got) != 0 {
		t.Errorf("Poll() on empty assembler returned %d chunks", len(got))
	}
}

func TestAssemblerResetDiscardsPartial(t *testing.T) {
	a := NewAssembler(8, 4)

	if got := feed(a, 0, 6); len(got) != 0 {
		t.Fatalf("partial fill emitted %d chunks", len(got))
	}
	a.Reset()
	if a.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", a.Len())
	}

	// After reset the first-chunk threshold applies again.
	chunks := feed(a, 100, 8)
	if len(chunks) != 1 {
		t.Fatalf("after reset: %d chunks, want 1", len(chunks))
	}
	if chunks[0][0] != 100 {
		t.Errorf("chunk starts at %v, want 100 (pre-reset samples leaked)", chunks[0][0])
	}
}

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", make([]float32, 256), 0},
		{"unit", []float32{1, -1, 1, -1}, 1},
		{"half", []float32{0.5, -0.5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateRMS(tt.samples)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("calculateRMS() = %v, want %v", got, tt.want)
			}
		})
	}
}
