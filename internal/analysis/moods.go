package analysis

import (
	"math"
	"sort"
)

// Mood analysis backends. The MTG-Jamendo model needs classifier output
// from the extractor; the heuristic derives coarse moods from tempo and
// timbre alone.
const (
	MoodModelMTGJamendo = "mtg-jamendo"
	MoodModelHeuristic  = "heuristic"
)

// Selection thresholds for turning class probabilities into tags.
const (
	DefaultMoodThreshold = 0.1
	DefaultMaxMoods      = 5
)

// MTGJamendoClasses lists the mood and theme vocabulary of the
// MTG-Jamendo autotagging model.
var MTGJamendoClasses = []string{
	"action", "adventure", "advertising", "background", "ballad", "calm",
	"children", "christmas", "commercial", "cool", "corporate", "dark",
	"deep", "documentary", "drama", "dramatic", "dream", "emotional",
	"energetic", "epic", "fast", "film", "fun", "funny", "game", "groovy",
	"happy", "heavy", "holiday", "hopeful", "inspiring", "love",
	"meditative", "melancholic", "melodic", "motivational", "movie",
	"nature", "party", "positive", "powerful", "relaxing", "retro",
	"romantic", "sad", "sexy", "slow", "soft", "soundscape", "space",
	"sport", "summer", "trailer", "travel", "upbeat", "uplifting",
}

// SelectTopMoods ranks class probabilities and keeps at most maxTags of
// those scoring at least threshold. When nothing clears the bar the
// single best class is kept anyway, so a scored track always gets one
// tag. Empty input stays empty.
func SelectTopMoods(scores map[string]float64, threshold float64, maxTags int) []string {
	if len(scores) == 0 {
		return nil
	}

	type scored struct {
		class string
		score float64
	}

	ranked := make([]scored, 0, len(scores))
	for class, score := range scores {
		ranked = append(ranked, scored{class, score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}

		return ranked[i].class < ranked[j].class
	})

	var tags []string
	for _, s := range ranked {
		if s.score >= threshold && len(tags) < maxTags {
			tags = append(tags, s.class)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, ranked[0].class)
	}

	return tags
}

// HeuristicMoodScores estimates a small mood vocabulary directly from
// signal features. Fast loud tracks read as energetic, slow quiet ones
// as calm, and the spectral centroid splits bright from dark.
func HeuristicMoodScores(features *Features) map[string]float64 {
	tempo := features.TempoBPM / 140
	loudness := features.RMS * 10
	brightness := features.SpectralCentroid / 3000

	return map[string]float64{
		"energetic": math.Min(1, tempo)*0.5 + math.Min(1, loudness)*0.5,
		"calm":      math.Max(0, 1-tempo)*0.5 + math.Max(0, 1-loudness)*0.5,
		"bright":    math.Min(1, brightness),
		"dark":      math.Max(0, 1-brightness),
	}
}
