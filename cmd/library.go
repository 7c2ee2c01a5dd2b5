package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/desertthunder/trax/internal/analysis"
	"github.com/desertthunder/trax/internal/formatter"
	"github.com/desertthunder/trax/internal/library"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/urfave/cli/v3"
)

// pruneListLimit caps how many missing paths a dry run prints.
const pruneListLimit = 20

// trackRow is the JSON projection of one catalog row.
type trackRow struct {
	models.Track
	Energy       int     `json:"energy,omitempty"`
	Mood         string  `json:"mood,omitempty"`
	Genre        string  `json:"genre,omitempty"`
	LoudnessLUFS float64 `json:"loudness_lufs,omitempty"`
	GainDB       float64 `json:"gain_db,omitempty"`
}

func newTrackRow(track *models.LibraryTrack) trackRow {
	return trackRow{
		Track:        track.DTO(),
		Energy:       track.Energy(),
		Mood:         track.Mood(),
		Genre:        track.Genre(),
		LoudnessLUFS: track.LoudnessLUFS(),
		GainDB:       track.GainDB(),
	}
}

// listCriteria translates filter flags into repository criteria.
func listCriteria(cmd *cli.Command) map[string]any {
	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if genre := cmd.String("genre"); genre != "" {
		criteria["genre"] = genre
	}
	if missing := cmd.String("missing"); missing != "" {
		criteria["missing"] = missing
	}
	return criteria
}

// LibraryScan walks a directory tree and upserts its audio files into the catalog.
func (r *Runner) LibraryScan(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	root := cmd.StringArg("path")
	if root == "" {
		root = config.Library.Root
	}
	if root == "" {
		return fmt.Errorf("%w: no library root configured and no path given", shared.ErrMissingArgument)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrLibraryMissing, root)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewTrackRepository(db)
	prober := analysis.NewProber(config.Analysis.FFprobe, r.logger)
	scanner := library.NewScanner(repo, prober, r.logger)

	r.logger.Info("scanning library", "root", root)

	report, err := scanner.Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	r.writePlain("✓ Scan complete: %s\n", root)
	r.writePlain("  Found:   %d\n", report.Found)
	r.writePlain("  Added:   %d\n", report.Added)
	r.writePlain("  Updated: %d\n", report.Updated)
	r.writePlain("  Skipped: %d\n", report.Skipped)

	if len(report.ByExtension) > 0 {
		exts := make([]string, 0, len(report.ByExtension))
		for ext := range report.ByExtension {
			exts = append(exts, ext)
		}
		sort.Strings(exts)

		r.writePlainln("By extension:")
		for _, ext := range exts {
			r.writePlain("  %-6s %d\n", ext, report.ByExtension[ext])
		}
	}

	return nil
}

// LibraryList prints cataloged tracks, optionally filtered.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewTrackRepository(db)
	tracks, err := repo.List(listCriteria(cmd))
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]trackRow, len(tracks))
		for i, track := range tracks {
			rows[i] = newTrackRow(track)
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}

	export := &formatter.LibraryExport{Title: "Track Catalog", Source: config.Library.Root, Tracks: tracks}
	text, err := formatter.ExportToText(export)
	if err != nil {
		return fmt.Errorf("failed to render track list: %w", err)
	}

	return r.writePlain("%s", text)
}

// LibraryPrune soft-deletes catalog rows whose files no longer exist on disk.
func (r *Runner) LibraryPrune(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewTrackRepository(db)
	tracks, err := repo.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	missing := library.MissingTracks(tracks)
	if len(missing) == 0 {
		return r.writePlain("No missing files\n")
	}

	r.writePlain("Found %d entries with missing files\n", len(missing))

	if cmd.Bool("dry-run") {
		for i, track := range missing {
			if i == pruneListLimit {
				r.writePlain("  ... and %d more\n", len(missing)-pruneListLimit)
				break
			}

			r.writePlain("  %s\n", track.Path())
		}

		return nil
	}

	removed := 0
	for _, track := range missing {
		if err := repo.Delete(track.ID()); err != nil {
			r.logger.Warn("failed to prune track", "path", track.Path(), "error", err)
			continue
		}

		removed++
	}

	return r.writePlain("✓ Removed %d entries\n", removed)
}

// LibraryExport writes the catalog to CSV, Markdown, or plain text files.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	format := cmd.String("format")
	output := cmd.String("output")

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewTrackRepository(db)
	tracks, err := repo.List(listCriteria(cmd))
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: nothing to export", shared.ErrTrackNotFound)
	}

	export := &formatter.LibraryExport{
		Title:  "Track Catalog",
		Source: config.Library.Root,
		Tracks: tracks,
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d tracks\n", len(tracks))
		r.writePlain("  Tracks:  %s\n", result.TracksFile)
		r.writePlain("  Summary: %s\n", result.SummaryFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), result.Directory)
	case "text", "txt":
		if output == "" {
			output = "library.txt"
		}
		written, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), written)
	default:
		return fmt.Errorf("%w: unknown format %q (expected csv, markdown, or text)", shared.ErrInvalidFlag, format)
	}

	return nil
}
