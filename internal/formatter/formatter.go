// package formatter provides functions to export library report data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// LibraryExport is a slice of the catalog prepared for rendering: the
// tracks plus a heading and a note on how the slice was selected.
type LibraryExport struct {
	Title  string
	Source string
	Tracks []*models.LibraryTrack
}

// ExportSummary is the metadata document written alongside CSV exports.
type ExportSummary struct {
	Title        string    `json:"title"`
	Source       string    `json:"source,omitempty"`
	TrackCount   int       `json:"track_count"`
	WithEnergy   int       `json:"with_energy"`
	WithMood     int       `json:"with_mood"`
	WithGenre    int       `json:"with_genre"`
	WithLoudness int       `json:"with_loudness"`
	ExportedAt   time.Time `json:"exported_at"`
}

// Summarize counts how much of the exported slice has been analyzed.
func Summarize(export *LibraryExport) ExportSummary {
	summary := ExportSummary{
		Title:      export.Title,
		Source:     export.Source,
		TrackCount: len(export.Tracks),
		ExportedAt: time.Now().UTC(),
	}

	for _, track := range export.Tracks {
		if track.Energy() > 0 {
			summary.WithEnergy++
		}
		if track.Mood() != "" {
			summary.WithMood++
		}
		if track.Genre() != "" {
			summary.WithGenre++
		}
		if track.LoudnessLUFS() != 0 {
			summary.WithLoudness++
		}
	}

	return summary
}

// ExportToCSV converts a LibraryExport to CSV format with columns: Path, Title, Artist, Album, Duration, BPM, Key, Energy, Mood, Genre, LUFS, Gain
func ExportToCSV(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Path", "Title", "Artist", "Album", "Duration", "BPM", "Key", "Energy", "Mood", "Genre", "LUFS", "Gain"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.Path(),
			track.Title(),
			track.Artist(),
			track.Album(),
			strconv.Itoa(track.Duration()),
			blankZeroFloat(track.BPM()),
			track.Key(),
			blankZeroInt(track.Energy()),
			track.Mood(),
			track.Genre(),
			blankZeroFloat(track.LoudnessLUFS()),
			blankZeroFloat(track.GainDB()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a LibraryExport to a Markdown report with an analysis table
func ExportToMarkdown(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Title))

	if export.Source != "" {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n\n", export.Source))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("| # | Artist | Title | BPM | Key | Energy | Mood | Genre | LUFS |\n")
	buf.WriteString("|---|--------|-------|-----|-----|--------|------|-------|------|\n")

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			track.Artist(),
			track.Title(),
			blankZeroFloat(track.BPM()),
			track.Key(),
			blankZeroInt(track.Energy()),
			track.Mood(),
			track.Genre(),
			blankZeroFloat(track.LoudnessLUFS()),
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a LibraryExport to plain text format
func ExportToText(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Library: %s\n", export.Title))
	if export.Source != "" {
		buf.WriteString(fmt.Sprintf("Source: %s\n", export.Source))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		duration := shared.FormatDuration(track.Duration())
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]%s\n", i+1, track.Artist(), track.Title(), duration, analysisSuffix(track)))
	}

	return buf.Bytes(), nil
}

// analysisSuffix renders whichever analysis fields a track has, or nothing.
func analysisSuffix(track *models.LibraryTrack) string {
	var parts []string

	if track.Energy() > 0 {
		parts = append(parts, fmt.Sprintf("energy %d", track.Energy()))
	}
	if track.Key() != "" {
		parts = append(parts, track.Key())
	}
	if track.Genre() != "" {
		parts = append(parts, track.Genre())
	}
	if track.LoudnessLUFS() != 0 {
		parts = append(parts, fmt.Sprintf("%s LUFS", blankZeroFloat(track.LoudnessLUFS())))
	}

	if len(parts) == 0 {
		return ""
	}

	suffix := " ("
	for i, part := range parts {
		if i > 0 {
			suffix += ", "
		}
		suffix += part
	}

	return suffix + ")"
}

func blankZeroFloat(value float64) string {
	if value == 0 {
		return ""
	}

	return strconv.FormatFloat(value, 'f', -1, 64)
}

func blankZeroInt(value int) string {
	if value == 0 {
		return ""
	}

	return strconv.Itoa(value)
}

// ToSummaryJSON generates a JSON representation of the export summary
func ToSummaryJSON(export *LibraryExport) ([]byte, error) {
	return shared.MarshalJSON(Summarize(export), true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile  string
	SummaryFile string
}

// WriteCSVExport exports a library slice to CSV format with an accompanying summary JSON file.
//
// Defaults to "library" as the base filename & creates {base}_tracks.csv and {base}_summary.json
func WriteCSVExport(export *LibraryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "library"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:  tracksFile,
		SummaryFile: summaryFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a library slice to Markdown format in a dedicated directory.
//
// Directory name defaults to "library". Creates {dir}/README.md.
func WriteMarkdownExport(export *LibraryExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "library"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{mdFile},
	}, nil
}

// WriteTextExport exports a library slice to plain text format.
//
// Defaults to library_tracks.txt as the filename.
func WriteTextExport(export *LibraryExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "library_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
