package voicestream

import "math"

// calculateRMS returns the root mean square of a sample block,
// a cheap measure of input loudness in [0, 1] for normalized audio.
func calculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
