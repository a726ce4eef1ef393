package audio

import (
	"encoding/binary"
	"math"
)

// levelGain scales raw RMS so normal speech lands visibly in [0,1].
// Tuned empirically; the silence threshold in the controller assumes it.
const levelGain = 10.0

// Level computes the normalized RMS loudness of a block of 16-bit
// little-endian PCM, scaled for perceptual visibility and clamped to [0,1].
func Level(data []byte) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	level := math.Sqrt(sumSquares/float64(n)) * levelGain
	return math.Min(level, 1.0)
}
