package lookup

import (
	"strings"
	"testing"
)

func TestNormalizeGenre(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"Exact Match", "house", "House"},
		{"Case Insensitive", "Deep House", "Deep House"},
		{"Variant Collapses", "drum n bass", "Drum & Bass"},
		{"Hyphenated Match", "hip-hop", "Hip-Hop"},
		{"Subgenre Folds Into Family", "gangsta rap", "Hip-Hop"},
		{"Unmapped Title Cased", "lo-fi beats", "Lo-Fi Beats"},
		{"Unmapped Single Word", "phonk", "Phonk"},
		{"Empty", "", ""},
		{"Whitespace Only", "   ", ""},
		{"Trims Before Matching", "  techno  ", "Techno"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeGenre(tc.raw); got != tc.want {
				t.Errorf("NormalizeGenre(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMoodVocabulary(t *testing.T) {
	t.Run("Values Are Canonical", func(t *testing.T) {
		canonical := make(map[string]bool, len(CanonicalMoods))
		for _, mood := range CanonicalMoods {
			canonical[mood] = true
		}

		for tag, mood := range tagToMood {
			if !canonical[mood] {
				t.Errorf("tag %q maps to %q, not a canonical mood", tag, mood)
			}
		}
	})

	t.Run("Covers Common Tags", func(t *testing.T) {
		if len(tagToMood) < 100 {
			t.Errorf("expected at least 100 mood mappings, got %d", len(tagToMood))
		}
	})
}

func TestGenreVocabulary(t *testing.T) {
	t.Run("Values Are Non Empty", func(t *testing.T) {
		for tag, genre := range tagToGenre {
			if genre == "" {
				t.Errorf("tag %q maps to an empty genre", tag)
			}
		}
	})

	t.Run("Keys Are Lowercase", func(t *testing.T) {
		for tag := range tagToGenre {
			if tag != strings.ToLower(tag) {
				t.Errorf("tag %q is not lowercase", tag)
			}
		}
	})

	t.Run("Covers Common Tags", func(t *testing.T) {
		if len(tagToGenre) < 150 {
			t.Errorf("expected at least 150 genre mappings, got %d", len(tagToGenre))
		}
	})
}

func TestTagMapping(t *testing.T) {
	t.Run("Weighted By Count", func(t *testing.T) {
		tags := []tagCount{
			{Name: "electronic", Count: 40},
			{Name: "Techno", Count: 100},
			{Name: "seen live", Count: 500},
		}

		if got := mapWeightedTags(tags, tagToGenre); got != "Techno" {
			t.Errorf("expected Techno, got %q", got)
		}
	})

	t.Run("Variants Pool Their Votes", func(t *testing.T) {
		tags := []tagCount{
			{Name: "drum and bass", Count: 30},
			{Name: "dnb", Count: 30},
			{Name: "house", Count: 50},
		}

		if got := mapWeightedTags(tags, tagToGenre); got != "Drum & Bass" {
			t.Errorf("expected Drum & Bass, got %q", got)
		}
	})

	t.Run("Ties Break Alphabetically", func(t *testing.T) {
		tags := []tagCount{
			{Name: "techno", Count: 5},
			{Name: "house", Count: 5},
		}

		if got := mapWeightedTags(tags, tagToGenre); got != "House" {
			t.Errorf("expected House on a tie, got %q", got)
		}
	})

	t.Run("Nothing Mapped", func(t *testing.T) {
		tags := []tagCount{{Name: "seen live", Count: 100}}
		if got := mapWeightedTags(tags, tagToGenre); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
	})

	t.Run("Unweighted Names", func(t *testing.T) {
		names := []string{"house", "techno", "House Music"}
		if got := mapNames(names, tagToGenre); got != "House" {
			t.Errorf("expected House, got %q", got)
		}
	})

	t.Run("Genre Tags Vote For Moods", func(t *testing.T) {
		names := []string{"death metal", "thrash"}
		if got := mapNames(names, tagToMood); got != "aggressive" {
			t.Errorf("expected aggressive, got %q", got)
		}
	})
}
