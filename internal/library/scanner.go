package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/analysis"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// AudioExtensions lists the file extensions the scanner treats as audio,
// lowercased with the leading dot.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".wav":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".opus": true,
	".wma":  true,
	".alac": true,
}

// IsAudioFile reports whether path has a recognized audio extension.
func IsAudioFile(path string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindAudioFiles returns every audio file under root in lexical walk order.
// A root that is itself an audio file yields a single-element slice.
func FindAudioFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrLibraryMissing, root)
		}

		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if !IsAudioFile(root) {
			return nil, fmt.Errorf("%w: %s is not an audio file", shared.ErrInvalidArgument, root)
		}

		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() && IsAudioFile(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return paths, nil
}

// MissingTracks returns the cataloged tracks whose files no longer exist on
// disk. Stat failures other than absence do not count as missing.
func MissingTracks(tracks []*models.LibraryTrack) []*models.LibraryTrack {
	var missing []*models.LibraryTrack
	for _, track := range tracks {
		if _, err := os.Stat(track.Path()); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, track)
		}
	}

	return missing
}

// TagReader supplies file metadata to the scanner. *analysis.Prober is the
// production implementation.
type TagReader interface {
	ReadTags(ctx context.Context, path string) (*analysis.TrackTags, error)
}

// ScanReport summarizes one scan pass.
type ScanReport struct {
	Found       int            // Audio files seen during the walk
	Added       int            // New catalog rows
	Updated     int            // Existing rows with refreshed tags
	Skipped     int            // Files whose tags could not be read
	ByExtension map[string]int // Found count per extension
}

// Scanner walks directories and upserts the audio files it finds into the
// track catalog.
type Scanner struct {
	repo   *TrackRepository
	prober TagReader
	logger *log.Logger
}

// NewScanner wires a scanner to the catalog and a tag source.
func NewScanner(repo *TrackRepository, prober TagReader, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}

	return &Scanner{repo: repo, prober: prober, logger: logger}
}

// Scan catalogs every audio file under root. Existing rows keep their
// analysis results and get refreshed tags; unreadable files are counted and
// skipped rather than failing the pass. Cancelling ctx stops the scan
// between files.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanReport, error) {
	paths, err := FindAudioFiles(root)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{Found: len(paths), ByExtension: make(map[string]int)}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.ByExtension[strings.ToLower(filepath.Ext(path))]++

		tags, err := s.prober.ReadTags(ctx, path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			report.Skipped++
			continue
		}

		if err := s.upsert(path, tags, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (s *Scanner) upsert(path string, tags *analysis.TrackTags, report *ScanReport) error {
	duration := int(math.Round(tags.Duration))

	existing, err := s.repo.GetByPath(path)
	if err != nil && !errors.Is(err, shared.ErrTrackNotFound) {
		return err
	}

	if existing != nil {
		existing.SetTags(tags.Title, tags.Artist, tags.Album, duration)
		applyFileTags(existing, tags)

		if err := s.repo.Update(existing); err != nil {
			return err
		}

		report.Updated++
		return nil
	}

	track := models.NewLibraryTrack(0, models.Track{
		Path:     path,
		Title:    tags.Title,
		Artist:   tags.Artist,
		Album:    tags.Album,
		Duration: duration,
	})
	applyFileTags(track, tags)

	if err := s.repo.Create(track); err != nil {
		return err
	}

	report.Added++
	return nil
}

// applyFileTags copies tempo and key frames into the track when the file
// carries them. Absent frames leave previous values alone.
func applyFileTags(track *models.LibraryTrack, tags *analysis.TrackTags) {
	if bpm, ok := tags.BPM(); ok {
		track.SetBPM(bpm)
	}

	if key, ok := tags.MIKKey(); ok {
		track.SetKey(key)
	}
}
