package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Tag names Mixed In Key and compatible tools write, in priority order.
// Matching is by substring on the uppercased tag key because MIK uses
// TXXX frames whose descriptions vary across versions.
var (
	mikEnergyTags = []string{"ENERGYLEVEL", "ENERGY LEVEL", "MIK_ENERGY", "TRAKTOR4.ENERGY"}
	mikKeyTags    = []string{"INITIALKEY", "KEY", "MIK_KEY"}
	mikBPMTags    = []string{"BPM", "TBPM"}
)

// TrackTags holds the metadata ffprobe reports for one file. Raw keeps
// every tag with uppercased keys so format-specific frames stay
// reachable.
type TrackTags struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Genre    string
	Duration float64
	Raw      map[string]string
}

// lookupRaw returns the value of the first raw tag whose key contains one
// of the given names. Names are tried in order and keys in sorted order,
// so INITIALKEY wins over a bare KEY frame.
func (t *TrackTags) lookupRaw(names []string) (string, bool) {
	keys := make([]string, 0, len(t.Raw))
	for k := range t.Raw {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, name := range names {
		for _, k := range keys {
			if strings.Contains(k, name) && t.Raw[k] != "" {
				return t.Raw[k], true
			}
		}
	}

	return "", false
}

// MIKEnergy returns the Mixed In Key energy level when one of its tag
// variants holds a parseable integer.
func (t *TrackTags) MIKEnergy() (int, bool) {
	raw, ok := t.lookupRaw(mikEnergyTags)
	if !ok {
		return 0, false
	}

	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}

	return level, true
}

// MIKKey returns the musical key tag, preferring INITIALKEY frames.
func (t *TrackTags) MIKKey() (string, bool) {
	return t.lookupRaw(mikKeyTags)
}

// BPM returns the tempo tag as a float when present.
func (t *TrackTags) BPM() (float64, bool) {
	raw, ok := t.lookupRaw(mikBPMTags)
	if !ok {
		return 0, false
	}

	bpm, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}

	return bpm, true
}

// Prober reads file metadata through ffprobe's JSON output.
type Prober struct {
	bin    string
	runner commandRunner
	logger *log.Logger
}

// NewProber wraps the ffprobe binary at bin, defaulting to PATH lookup
// when bin is empty.
func NewProber(bin string, logger *log.Logger) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Prober{bin: bin, runner: execRunner{}, logger: logger}
}

type probeOutput struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string            `json:"codec_type"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
}

// ReadTags probes one file. Container-level tags win over stream-level
// ones when both carry the same key.
func (p *Prober) ReadTags(ctx context.Context, path string) (*TrackTags, error) {
	stdout, _, err := p.runner.run(ctx, p.bin,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	var doc probeOutput
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return nil, fmt.Errorf("parse probe output for %s: %w", path, err)
	}

	raw := make(map[string]string)
	for k, v := range doc.Format.Tags {
		raw[strings.ToUpper(k)] = strings.TrimSpace(v)
	}

	for _, stream := range doc.Streams {
		if stream.CodecType != "audio" {
			continue
		}

		for k, v := range stream.Tags {
			upper := strings.ToUpper(k)
			if _, exists := raw[upper]; !exists {
				raw[upper] = strings.TrimSpace(v)
			}
		}
	}

	tags := &TrackTags{
		Path:   path,
		Title:  raw["TITLE"],
		Artist: raw["ARTIST"],
		Album:  raw["ALBUM"],
		Genre:  raw["GENRE"],
		Raw:    raw,
	}

	if doc.Format.Duration != "" {
		if seconds, err := strconv.ParseFloat(doc.Format.Duration, 64); err == nil {
			tags.Duration = seconds
		}
	}

	return tags, nil
}
