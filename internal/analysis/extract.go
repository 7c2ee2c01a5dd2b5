package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/shared"
)

// Features holds the signal-level descriptors a single extractor run
// produces. Moods is empty when the extractor ran without classifier
// models.
type Features struct {
	TempoBPM         float64
	RMS              float64
	SpectralCentroid float64
	Moods            map[string]float64
}

// FeatureExtractor computes audio features for one file.
type FeatureExtractor interface {
	Extract(ctx context.Context, path string) (*Features, error)
}

// commandRunner is the seam between tool wrappers and the OS. Tests swap
// in canned output instead of invoking real binaries.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// EssentiaExtractor runs essentia_streaming_extractor_music and maps its
// JSON output onto [Features].
type EssentiaExtractor struct {
	bin    string
	runner commandRunner
	logger *log.Logger
}

// NewEssentiaExtractor wraps the extractor binary at bin. An empty bin
// falls back to the standard binary name and relies on PATH.
func NewEssentiaExtractor(bin string, logger *log.Logger) *EssentiaExtractor {
	if bin == "" {
		bin = "essentia_streaming_extractor_music"
	}

	if logger == nil {
		logger = log.Default()
	}

	return &EssentiaExtractor{bin: bin, runner: execRunner{}, logger: logger}
}

// essentiaOutput mirrors the slice of the extractor's JSON schema we
// consume. The full document carries hundreds of descriptors.
type essentiaOutput struct {
	Rhythm struct {
		BPM float64 `json:"bpm"`
	} `json:"rhythm"`
	Lowlevel struct {
		SpectralRMS struct {
			Mean float64 `json:"mean"`
		} `json:"spectral_rms"`
		SpectralCentroid struct {
			Mean float64 `json:"mean"`
		} `json:"spectral_centroid"`
	} `json:"lowlevel"`
	Highlevel map[string]struct {
		All map[string]float64 `json:"all"`
	} `json:"highlevel"`
}

// Extract analyzes one file. The extractor writes its report to a file
// rather than stdout, so the run goes through a temp path that is removed
// before returning.
func (e *EssentiaExtractor) Extract(ctx context.Context, path string) (*Features, error) {
	out, err := os.CreateTemp("", "trax-essentia-*.json")
	if err != nil {
		return nil, fmt.Errorf("create extractor output: %w", err)
	}

	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if _, stderr, err := e.runner.run(ctx, e.bin, path, outPath); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrExtractorUnavailable, e.bin)
		}

		if len(stderr) > 0 {
			e.logger.Debug("extractor failed", "path", path, "stderr", string(stderr))
		}

		return nil, fmt.Errorf("%w: %s: %v", shared.ErrExtractionFailed, path, err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read extractor output: %w", err)
	}

	return parseEssentiaOutput(raw)
}

func parseEssentiaOutput(raw []byte) (*Features, error) {
	var doc essentiaOutput
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse extractor output: %v", shared.ErrExtractionFailed, err)
	}

	features := &Features{
		TempoBPM:         doc.Rhythm.BPM,
		RMS:              doc.Lowlevel.SpectralRMS.Mean,
		SpectralCentroid: doc.Lowlevel.SpectralCentroid.Mean,
	}

	for _, classifier := range doc.Highlevel {
		for class, prob := range classifier.All {
			if features.Moods == nil {
				features.Moods = make(map[string]float64)
			}

			features.Moods[class] = prob
		}
	}

	return features, nil
}
