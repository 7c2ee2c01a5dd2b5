package library

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTrack(path, title, artist string) *models.LibraryTrack {
	return models.NewLibraryTrack(0, models.Track{
		Path:     path,
		Title:    title,
		Artist:   artist,
		Album:    "Test Album",
		Duration: 245,
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if track.ID() == "" {
			t.Error("track ID should be set after creation")
		}
	})

	t.Run("Create Rejects Missing Path", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.Create(newTrack("", "Strobe", "deadmau5")); err == nil {
			t.Error("expected validation error for empty path")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Title() != "Strobe" || retrieved.Artist() != "deadmau5" {
			t.Errorf("got (%q, %q), want (Strobe, deadmau5)", retrieved.Title(), retrieved.Artist())
		}
	})

	t.Run("GetByPath", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByPath("/music/strobe.mp3")
		if err != nil {
			t.Fatalf("failed to get track by path: %v", err)
		}

		if retrieved.ID() != track.ID() {
			t.Errorf("expected ID %s, got %s", track.ID(), retrieved.ID())
		}

		if _, err := repo.GetByPath("/music/unknown.mp3"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("GetByPath() error = %v, want ErrTrackNotFound", err)
		}
	})

	t.Run("Update Persists Analysis Fields", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		track.SetEnergy(7)
		track.SetMood("energetic,dark")
		track.SetGenre("Progressive House")
		track.SetBPM(128)
		track.SetKey("8A")
		track.SetLoudness(-9.53)
		track.SetGain(-4.47)

		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		retrieved, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Energy() != 7 || retrieved.Mood() != "energetic,dark" || retrieved.Genre() != "Progressive House" {
			t.Errorf("analysis fields = (%d, %q, %q)", retrieved.Energy(), retrieved.Mood(), retrieved.Genre())
		}

		if retrieved.BPM() != 128 || retrieved.Key() != "8A" {
			t.Errorf("tempo fields = (%v, %q)", retrieved.BPM(), retrieved.Key())
		}

		if retrieved.LoudnessLUFS() != -9.53 || retrieved.GainDB() != -4.47 {
			t.Errorf("loudness fields = (%v, %v)", retrieved.LoudnessLUFS(), retrieved.GainDB())
		}
	})

	t.Run("Delete Hides Track", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}

		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("Get() error = %v, want ErrTrackNotFound after delete", err)
		}

		if err := repo.Delete(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("Delete() error = %v, want ErrTrackNotFound on second delete", err)
		}
	})

	t.Run("List Orders By Sequence", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		for _, name := range []string{"c.mp3", "a.mp3", "b.mp3"} {
			if err := repo.Create(newTrack("/music/"+name, name, "Various")); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		tracks, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}

		if len(tracks) != 3 {
			t.Fatalf("len(tracks) = %d, want 3", len(tracks))
		}

		if tracks[0].Path() != "/music/c.mp3" {
			t.Errorf("tracks[0].Path() = %q, insertion order should win", tracks[0].Path())
		}
	})

	t.Run("List Filters", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		first := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		first.SetGenre("Progressive House")
		first.SetEnergy(7)
		if err := repo.Update(first); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		if err := repo.Create(newTrack("/music/flim.mp3", "Flim", "Aphex Twin")); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		t.Run("By Artist", func(t *testing.T) {
			tracks, err := repo.List(map[string]any{"artist": "deadmau5"})
			if err != nil {
				t.Fatalf("failed to list tracks: %v", err)
			}

			if len(tracks) != 1 || tracks[0].Artist() != "deadmau5" {
				t.Errorf("got %d tracks, want the single deadmau5 row", len(tracks))
			}
		})

		t.Run("By Genre", func(t *testing.T) {
			tracks, err := repo.List(map[string]any{"genre": "Progressive House"})
			if err != nil {
				t.Fatalf("failed to list tracks: %v", err)
			}

			if len(tracks) != 1 || tracks[0].Title() != "Strobe" {
				t.Errorf("got %d tracks, want the single analyzed row", len(tracks))
			}
		})

		t.Run("Missing Analysis", func(t *testing.T) {
			tracks, err := repo.List(map[string]any{"missing": "energy"})
			if err != nil {
				t.Fatalf("failed to list tracks: %v", err)
			}

			if len(tracks) != 1 || tracks[0].Title() != "Flim" {
				t.Errorf("got %d tracks, want the single unanalyzed row", len(tracks))
			}
		})

		t.Run("Unknown Missing Field", func(t *testing.T) {
			if _, err := repo.List(map[string]any{"missing": "sparkle"}); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("List() error = %v, want ErrInvalidArgument", err)
			}
		})
	})
}

func TestApplyResults(t *testing.T) {
	seed := func(t *testing.T) (*TrackRepository, *models.LibraryTrack) {
		t.Helper()

		repo := NewTrackRepository(setupTestDB(t))
		track := newTrack("/music/strobe.mp3", "Strobe", "deadmau5")
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		return repo, track
	}

	t.Run("Routes Every Kind", func(t *testing.T) {
		repo, track := seed(t)

		applied, err := repo.ApplyResults([]*models.ResultRecord{
			{Path: track.Path(), Kind: "energy", Value: "7"},
			{Path: track.Path(), Kind: "mood:mtg-jamendo", Value: "energetic,dark"},
			{Path: track.Path(), Kind: "genre", Value: "Progressive House"},
			{Path: track.Path(), Kind: "mik", Value: "8:11B"},
			{Path: track.Path(), Kind: "loudness", Value: "-9.53"},
			{Path: track.Path(), Kind: "normalize", Value: "-4.47"},
		})
		if err != nil {
			t.Fatalf("ApplyResults() error = %v", err)
		}

		if applied != 6 {
			t.Errorf("applied = %d, want 6", applied)
		}

		retrieved, err := repo.GetByPath(track.Path())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Energy() != 8 {
			t.Errorf("Energy() = %d, mik import should win as the last write", retrieved.Energy())
		}

		if retrieved.Mood() != "energetic,dark" || retrieved.Genre() != "Progressive House" {
			t.Errorf("tag fields = (%q, %q)", retrieved.Mood(), retrieved.Genre())
		}

		if retrieved.Key() != "11B" {
			t.Errorf("Key() = %q, want 11B", retrieved.Key())
		}

		if retrieved.LoudnessLUFS() != -9.53 || retrieved.GainDB() != -4.47 {
			t.Errorf("loudness fields = (%v, %v)", retrieved.LoudnessLUFS(), retrieved.GainDB())
		}
	})

	t.Run("Keyless MIK Value Leaves Energy", func(t *testing.T) {
		repo, track := seed(t)

		if _, err := repo.ApplyResults([]*models.ResultRecord{
			{Path: track.Path(), Kind: "energy", Value: "7"},
			{Path: track.Path(), Kind: "mik", Value: ":4A"},
		}); err != nil {
			t.Fatalf("ApplyResults() error = %v", err)
		}

		retrieved, err := repo.GetByPath(track.Path())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Energy() != 7 || retrieved.Key() != "4A" {
			t.Errorf("got (%d, %q), want energy preserved with key applied", retrieved.Energy(), retrieved.Key())
		}
	})

	t.Run("Uncataloged Path Is Not An Error", func(t *testing.T) {
		repo, _ := seed(t)

		applied, err := repo.ApplyResults([]*models.ResultRecord{
			{Path: "/music/unknown.mp3", Kind: "energy", Value: "5"},
		})
		if err != nil {
			t.Fatalf("ApplyResults() error = %v", err)
		}

		if applied != 0 {
			t.Errorf("applied = %d, want 0", applied)
		}
	})

	t.Run("Skips Failed And Unknown Records", func(t *testing.T) {
		repo, track := seed(t)

		applied, err := repo.ApplyResults([]*models.ResultRecord{
			{Path: track.Path(), Kind: "energy", Value: "9", Error: "extractor crashed"},
			{Path: track.Path(), Kind: "sparkle", Value: "yes"},
			nil,
		})
		if err != nil {
			t.Fatalf("ApplyResults() error = %v", err)
		}

		if applied != 0 {
			t.Errorf("applied = %d, want 0", applied)
		}

		retrieved, err := repo.GetByPath(track.Path())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Energy() != 0 {
			t.Errorf("Energy() = %d, failed record should not apply", retrieved.Energy())
		}
	})

	t.Run("Malformed Value Rolls Back Batch", func(t *testing.T) {
		repo, track := seed(t)

		_, err := repo.ApplyResults([]*models.ResultRecord{
			{Path: track.Path(), Kind: "energy", Value: "7"},
			{Path: track.Path(), Kind: "loudness", Value: "quiet"},
		})
		if err == nil {
			t.Fatal("expected error for malformed loudness value")
		}

		retrieved, getErr := repo.GetByPath(track.Path())
		if getErr != nil {
			t.Fatalf("failed to get track: %v", getErr)
		}

		if retrieved.Energy() != 0 {
			t.Errorf("Energy() = %d, aborted transaction should apply nothing", retrieved.Energy())
		}
	})
}
