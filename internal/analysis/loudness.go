package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultTargetLUFS is the streaming-platform loudness most DJ software
// expects library tracks to sit near.
const DefaultTargetLUFS = -14.0

// measureFilter runs loudnorm in measurement mode. The I/TP/LRA values
// only shape the (discarded) corrective pass, so they stay fixed
// regardless of the normalization target.
const measureFilter = "loudnorm=I=-16:TP=-1.5:LRA=11:print_format=json"

// Measurement is the first-pass loudnorm report for one file.
type Measurement struct {
	Integrated float64
	TruePeak   float64
	Range      float64
	Threshold  float64
}

// GainDB returns the adjustment that moves measured loudness to target,
// rounded to a hundredth of a decibel.
func GainDB(target, measured float64) float64 {
	return math.Round((target-measured)*100) / 100
}

// LoudnessMeter measures and normalizes file loudness through ffmpeg's
// loudnorm filter.
type LoudnessMeter struct {
	bin    string
	runner commandRunner
	logger *log.Logger
}

// NewLoudnessMeter wraps the ffmpeg binary at bin, defaulting to PATH
// lookup when bin is empty.
func NewLoudnessMeter(bin string, logger *log.Logger) *LoudnessMeter {
	if bin == "" {
		bin = "ffmpeg"
	}

	if logger == nil {
		logger = log.Default()
	}

	return &LoudnessMeter{bin: bin, runner: execRunner{}, logger: logger}
}

// Measure returns the integrated LUFS of one file.
func (m *LoudnessMeter) Measure(ctx context.Context, path string) (float64, error) {
	measurement, err := m.MeasureDetailed(ctx, path)
	if err != nil {
		return 0, err
	}

	return measurement.Integrated, nil
}

// MeasureDetailed runs the loudnorm measurement pass and returns the
// full report needed for linear two-pass normalization.
func (m *LoudnessMeter) MeasureDetailed(ctx context.Context, path string) (*Measurement, error) {
	_, stderr, err := m.runner.run(ctx, m.bin,
		"-i", path, "-af", measureFilter, "-f", "null", "-")
	if err != nil {
		return nil, fmt.Errorf("measure loudness of %s: %w", path, err)
	}

	return parseLoudnormReport(stderr)
}

// parseLoudnormReport pulls the JSON block loudnorm prints at the end of
// ffmpeg's stderr. Values arrive as strings, "-inf" included, which
// ParseFloat handles.
func parseLoudnormReport(stderr []byte) (*Measurement, error) {
	lines := strings.Split(string(stderr), "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			start = i
			break
		}
	}

	if start == -1 {
		return nil, fmt.Errorf("no loudnorm report in ffmpeg output")
	}

	var block []string
	for _, line := range lines[start:] {
		block = append(block, line)
		if strings.HasPrefix(strings.TrimSpace(line), "}") {
			break
		}
	}

	var report struct {
		InputI      string `json:"input_i"`
		InputTP     string `json:"input_tp"`
		InputLRA    string `json:"input_lra"`
		InputThresh string `json:"input_thresh"`
	}

	if err := json.Unmarshal([]byte(strings.Join(block, "\n")), &report); err != nil {
		return nil, fmt.Errorf("parse loudnorm report: %w", err)
	}

	measurement := &Measurement{}
	for _, field := range []struct {
		raw  string
		dest *float64
	}{
		{report.InputI, &measurement.Integrated},
		{report.InputTP, &measurement.TruePeak},
		{report.InputLRA, &measurement.Range},
		{report.InputThresh, &measurement.Threshold},
	} {
		value, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse loudnorm report value %q: %w", field.raw, err)
		}

		*field.dest = value
	}

	return measurement, nil
}

// Normalize rewrites path at the target loudness using the measured
// first-pass values. The corrected file lands next to the original
// first, then replaces it, so a failed encode never clobbers the source.
// With backup set the untouched original is kept as <name>.backup<ext>.
func (m *LoudnessMeter) Normalize(ctx context.Context, path string, target float64, measured *Measurement, backup bool) error {
	filter := fmt.Sprintf(
		"loudnorm=I=%g:TP=-1.0:LRA=11:measured_I=%.2f:measured_TP=%.2f:measured_LRA=%.2f:measured_thresh=%.2f:linear=true:print_format=summary",
		target, measured.Integrated, measured.TruePeak, measured.Range, measured.Threshold)

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	tempPath := base + ".normalized" + ext

	if _, stderr, err := m.runner.run(ctx, m.bin, "-i", path, "-af", filter, "-y", tempPath); err != nil {
		os.Remove(tempPath)

		if len(stderr) > 0 {
			m.logger.Debug("normalization failed", "path", path, "stderr", string(stderr))
		}

		return fmt.Errorf("normalize %s: %w", path, err)
	}

	if backup {
		if err := copyFile(path, base+".backup"+ext); err != nil {
			os.Remove(tempPath)
			return fmt.Errorf("back up %s: %w", path, err)
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
