package audio

import (
	"encoding/binary"
	"math"
)

// LevelData describes the loudness of a chunk of 16-bit samples.
type LevelData struct {
	Level    int // 0-100 scaled RMS level
	Clipping bool
}

// CalculateLevel calculates the RMS of raw s16le samples and returns the
// scaled level and clipping status. Used for debug metering only, never in
// the artifact path.
func CalculateLevel(samples []byte) LevelData {
	if len(samples) < 2 {
		return LevelData{}
	}

	var sum float64
	sampleCount := len(samples) / 2
	isClipping := false

	for i := 0; i+1 < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		sampleAbs := math.Abs(float64(sample))
		sum += sampleAbs * sampleAbs

		if sample == 32767 || sample == -32768 {
			isClipping = true
		}
	}

	rms := math.Sqrt(sum / float64(sampleCount))

	// Convert RMS to decibels and scale to 0-100. 32768 is the max value
	// for 16-bit audio; the -60 dB floor keeps quiet rooms near zero.
	db := 20 * math.Log10(rms/32768.0)
	scaledLevel := (db + 60) * (100.0 / 50.0)

	if isClipping {
		scaledLevel = math.Max(scaledLevel, 95)
	}

	if scaledLevel < 0 {
		scaledLevel = 0
	} else if scaledLevel > 100 {
		scaledLevel = 100
	}

	return LevelData{
		Level:    int(scaledLevel),
		Clipping: isClipping,
	}
}
