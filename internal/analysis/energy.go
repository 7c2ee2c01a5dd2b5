package analysis

import "math"

// Feature ranges observed across typical DJ libraries. Values outside a
// range clamp to its edge during normalization.
const (
	tempoMin = 60.0
	tempoMax = 180.0

	rmsMin = 0.01
	rmsMax = 0.3

	centroidMin = 1000.0
	centroidMax = 5000.0
)

// Fallbacks for files the extractor could not fully analyze.
const (
	defaultTempo    = 120.0
	defaultRMS      = 0.1
	defaultCentroid = 2000.0
)

// Relative weight of each feature in the combined energy score.
const (
	tempoWeight    = 0.35
	rmsWeight      = 0.35
	centroidWeight = 0.30
)

// normalizeFeature maps value onto [0, 1] within the given range. A
// degenerate range yields the midpoint.
func normalizeFeature(value, min, max float64) float64 {
	if max <= min {
		return 0.5
	}

	scaled := (value - min) / (max - min)
	return math.Min(1, math.Max(0, scaled))
}

// EnergyLevel folds tempo, RMS, and spectral centroid into a 1-10 rating.
// Zero-valued features fall back to midrange defaults so a partial
// extractor run still lands near 5 instead of pinning to 1.
func EnergyLevel(features *Features) int {
	tempo := features.TempoBPM
	if tempo == 0 {
		tempo = defaultTempo
	}

	rms := features.RMS
	if rms == 0 {
		rms = defaultRMS
	}

	centroid := features.SpectralCentroid
	if centroid == 0 {
		centroid = defaultCentroid
	}

	score := tempoWeight*normalizeFeature(tempo, tempoMin, tempoMax) +
		rmsWeight*normalizeFeature(rms, rmsMin, rmsMax) +
		centroidWeight*normalizeFeature(centroid, centroidMin, centroidMax)

	level := int(math.Round(score*9 + 1))
	if level < 1 {
		level = 1
	}

	if level > 10 {
		level = 10
	}

	return level
}
