package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/trax/internal/analysis"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

type fakeTagReader struct {
	tags  map[string]*analysis.TrackTags
	bad   map[string]bool
	calls int
}

func (f *fakeTagReader) ReadTags(_ context.Context, path string) (*analysis.TrackTags, error) {
	f.calls++

	if f.bad[path] {
		return nil, errors.New("unreadable")
	}

	if tags, ok := f.tags[path]; ok {
		return tags, nil
	}

	return &analysis.TrackTags{Path: path, Title: filepath.Base(path)}, nil
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()

	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}

		if err := os.WriteFile(path, []byte("audio bytes"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestFindAudioFiles(t *testing.T) {
	t.Run("Walks Recursively", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "a.mp3", "b.FLAC", "notes.txt", "sub/c.m4a", "sub/cover.jpg")

		paths, err := FindAudioFiles(root)
		if err != nil {
			t.Fatalf("FindAudioFiles() error = %v", err)
		}

		want := []string{
			filepath.Join(root, "a.mp3"),
			filepath.Join(root, "b.FLAC"),
			filepath.Join(root, "sub", "c.m4a"),
		}

		if len(paths) != len(want) {
			t.Fatalf("paths = %v, want %v", paths, want)
		}

		for i := range want {
			if paths[i] != want[i] {
				t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
			}
		}
	})

	t.Run("Single File Root", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "a.mp3")

		paths, err := FindAudioFiles(filepath.Join(root, "a.mp3"))
		if err != nil {
			t.Fatalf("FindAudioFiles() error = %v", err)
		}

		if len(paths) != 1 || paths[0] != filepath.Join(root, "a.mp3") {
			t.Errorf("paths = %v, want the file itself", paths)
		}
	})

	t.Run("Missing Root", func(t *testing.T) {
		if _, err := FindAudioFiles(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, shared.ErrLibraryMissing) {
			t.Errorf("FindAudioFiles() error = %v, want ErrLibraryMissing", err)
		}
	})

	t.Run("Non Audio File Root", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "notes.txt")

		if _, err := FindAudioFiles(filepath.Join(root, "notes.txt")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("FindAudioFiles() error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestMissingTracks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "here.mp3", "gone.mp3")

	here := filepath.Join(root, "here.mp3")
	gone := filepath.Join(root, "gone.mp3")

	if err := os.Remove(gone); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	tracks := []*models.LibraryTrack{
		models.NewLibraryTrack(1, models.Track{Path: here, Title: "Here"}),
		models.NewLibraryTrack(2, models.Track{Path: gone, Title: "Gone"}),
	}

	missing := MissingTracks(tracks)
	if len(missing) != 1 || missing[0].Path() != gone {
		t.Fatalf("MissingTracks() returned %d tracks, want only the deleted file", len(missing))
	}
}

func TestScan(t *testing.T) {
	t.Run("Catalogs New Files", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "strobe.mp3", "flim.mp3", "avril.flac")

		strobe := filepath.Join(root, "strobe.mp3")
		reader := &fakeTagReader{tags: map[string]*analysis.TrackTags{
			strobe: {
				Path: strobe, Title: "Strobe", Artist: "deadmau5",
				Album: "For Lack of a Better Name", Duration: 245.6,
				Raw: map[string]string{"TBPM": "128", "INITIALKEY": "8A"},
			},
		}}

		repo := NewTrackRepository(setupTestDB(t))
		report, err := NewScanner(repo, reader, nil).Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if report.Found != 3 || report.Added != 3 || report.Updated != 0 || report.Skipped != 0 {
			t.Errorf("report = %+v, want 3 found and added", report)
		}

		if report.ByExtension[".mp3"] != 2 || report.ByExtension[".flac"] != 1 {
			t.Errorf("ByExtension = %v", report.ByExtension)
		}

		track, err := repo.GetByPath(strobe)
		if err != nil {
			t.Fatalf("failed to get scanned track: %v", err)
		}

		if track.Title() != "Strobe" || track.Duration() != 246 {
			t.Errorf("track = (%q, %d), want tags applied with rounded duration", track.Title(), track.Duration())
		}

		if track.BPM() != 128 || track.Key() != "8A" {
			t.Errorf("tempo fields = (%v, %q), want file frames applied", track.BPM(), track.Key())
		}
	})

	t.Run("Rescan Updates Tags And Keeps Analysis", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "strobe.mp3")

		strobe := filepath.Join(root, "strobe.mp3")
		reader := &fakeTagReader{tags: map[string]*analysis.TrackTags{
			strobe: {Path: strobe, Title: "strobe", Duration: 245},
		}}

		repo := NewTrackRepository(setupTestDB(t))
		scanner := NewScanner(repo, reader, nil)

		if _, err := scanner.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		track, err := repo.GetByPath(strobe)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		track.SetEnergy(7)
		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		reader.tags[strobe].Title = "Strobe"

		report, err := scanner.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if report.Added != 0 || report.Updated != 1 {
			t.Errorf("report = %+v, want one update", report)
		}

		rescanned, err := repo.GetByPath(strobe)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if rescanned.Title() != "Strobe" {
			t.Errorf("Title() = %q, rescan should refresh tags", rescanned.Title())
		}

		if rescanned.Energy() != 7 {
			t.Errorf("Energy() = %d, rescan should keep analysis results", rescanned.Energy())
		}
	})

	t.Run("Unreadable Files Skipped", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "good.mp3", "bad.mp3")

		reader := &fakeTagReader{bad: map[string]bool{filepath.Join(root, "bad.mp3"): true}}

		repo := NewTrackRepository(setupTestDB(t))
		report, err := NewScanner(repo, reader, nil).Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if report.Added != 1 || report.Skipped != 1 {
			t.Errorf("report = %+v, want one added and one skipped", report)
		}
	})

	t.Run("Cancelled Context Stops", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "a.mp3", "b.mp3")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		repo := NewTrackRepository(setupTestDB(t))
		if _, err := NewScanner(repo, &fakeTagReader{}, nil).Scan(ctx, root); !errors.Is(err, context.Canceled) {
			t.Errorf("Scan() error = %v, want context.Canceled", err)
		}
	})
}
