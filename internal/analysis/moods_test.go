package analysis

import (
	"math"
	"sort"
	"testing"
)

func TestSelectTopMoods(t *testing.T) {
	tests := []struct {
		name      string
		scores    map[string]float64
		threshold float64
		maxTags   int
		want      []string
	}{
		{
			name: "Ranks By Score",
			scores: map[string]float64{
				"happy": 0.8, "energetic": 0.3, "calm": 0.15,
				"dark": 0.12, "epic": 0.11, "sad": 0.05,
			},
			threshold: 0.1,
			maxTags:   5,
			want:      []string{"happy", "energetic", "calm", "dark", "epic"},
		},
		{
			name: "Caps At Max Tags",
			scores: map[string]float64{
				"happy": 0.9, "sad": 0.8, "dark": 0.7,
				"epic": 0.6, "calm": 0.5, "fun": 0.4,
			},
			threshold: 0.1,
			maxTags:   5,
			want:      []string{"happy", "sad", "dark", "epic", "calm"},
		},
		{
			name:      "Threshold Filters",
			scores:    map[string]float64{"happy": 0.5, "sad": 0.05},
			threshold: 0.1,
			maxTags:   5,
			want:      []string{"happy"},
		},
		{
			name:      "Falls Back To Best Class",
			scores:    map[string]float64{"melancholic": 0.04, "soft": 0.08},
			threshold: 0.1,
			maxTags:   5,
			want:      []string{"soft"},
		},
		{
			name:      "Ties Break Alphabetically",
			scores:    map[string]float64{"dream": 0.5, "dark": 0.5, "calm": 0.5},
			threshold: 0.1,
			maxTags:   2,
			want:      []string{"calm", "dark"},
		},
		{
			name:      "Empty Scores",
			scores:    nil,
			threshold: 0.1,
			maxTags:   5,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTopMoods(tt.scores, tt.threshold, tt.maxTags)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectTopMoods() = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SelectTopMoods()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHeuristicMoodScores(t *testing.T) {
	approx := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	t.Run("Fast Loud Bright Track", func(t *testing.T) {
		scores := HeuristicMoodScores(&Features{TempoBPM: 140, RMS: 0.1, SpectralCentroid: 3000})

		for mood, want := range map[string]float64{
			"energetic": 1, "calm": 0, "bright": 1, "dark": 0,
		} {
			if !approx(scores[mood], want) {
				t.Errorf("scores[%q] = %v, want %v", mood, scores[mood], want)
			}
		}
	})

	t.Run("Slow Quiet Dull Track", func(t *testing.T) {
		scores := HeuristicMoodScores(&Features{TempoBPM: 70, RMS: 0.02, SpectralCentroid: 1500})

		for mood, want := range map[string]float64{
			"energetic": 0.35, "calm": 0.65, "bright": 0.5, "dark": 0.5,
		} {
			if !approx(scores[mood], want) {
				t.Errorf("scores[%q] = %v, want %v", mood, scores[mood], want)
			}
		}
	})

	t.Run("Extremes Stay In Unit Range", func(t *testing.T) {
		scores := HeuristicMoodScores(&Features{TempoBPM: 300, RMS: 0.9, SpectralCentroid: 12000})

		for mood, score := range scores {
			if score < 0 || score > 1 {
				t.Errorf("scores[%q] = %v, outside [0, 1]", mood, score)
			}
		}
	})
}

func TestMTGJamendoClasses(t *testing.T) {
	if len(MTGJamendoClasses) != 56 {
		t.Errorf("len(MTGJamendoClasses) = %d, want 56", len(MTGJamendoClasses))
	}

	if !sort.StringsAreSorted(MTGJamendoClasses) {
		t.Error("MTGJamendoClasses should be sorted")
	}
}
