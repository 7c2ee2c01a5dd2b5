package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/lookup"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// KindNormalize marks normalization result records. Unlike the analysis
// kinds it never appears in the cache because the file it describes is
// rewritten by the operation itself.
const KindNormalize = "normalize"

// MIKValue is the decoded form of a "mik" cache entry or result record.
// A zero Energy means the file carried no energy tag.
type MIKValue struct {
	Energy int
	Key    string
}

// String encodes the value as "energy:key" with empty slots preserved.
func (v MIKValue) String() string {
	if v.Energy == 0 {
		return ":" + v.Key
	}

	return fmt.Sprintf("%d:%s", v.Energy, v.Key)
}

// ParseMIKValue decodes an "energy:key" string.
func ParseMIKValue(raw string) (MIKValue, error) {
	energy, key, found := strings.Cut(raw, ":")
	if !found {
		return MIKValue{}, fmt.Errorf("malformed mik value %q", raw)
	}

	value := MIKValue{Key: key}
	if energy != "" {
		level, err := strconv.Atoi(energy)
		if err != nil {
			return MIKValue{}, fmt.Errorf("malformed mik energy in %q: %w", raw, err)
		}

		value.Energy = level
	}

	return value, nil
}

// cachedRecord returns a result record for an existing cache entry, or
// nil when the task wants fresh values or no valid entry exists.
func cachedRecord(store *cache.AnalysisCache, path, kind string, overwrite bool) *models.ResultRecord {
	if overwrite {
		return nil
	}

	value, ok := store.Get(path, kind)
	if !ok {
		return nil
	}

	return &models.ResultRecord{Path: path, Kind: kind, Value: value}
}

// EnergyProcessor rates tracks 1-10 from extracted signal features.
type EnergyProcessor struct {
	extractor FeatureExtractor
	store     *cache.AnalysisCache
}

func NewEnergyProcessor(extractor FeatureExtractor, store *cache.AnalysisCache) *EnergyProcessor {
	return &EnergyProcessor{extractor: extractor, store: store}
}

func (p *EnergyProcessor) Describe() string { return "energy analysis" }

func (p *EnergyProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	if record := cachedRecord(p.store, path, cache.KindEnergy, config.Overwrite); record != nil {
		return record, nil
	}

	features, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	value := strconv.Itoa(EnergyLevel(features))
	p.store.Put(path, cache.KindEnergy, value)

	return &models.ResultRecord{Path: path, Kind: cache.KindEnergy, Value: value}, nil
}

// MoodLookup resolves a canonical mood for a track through online tag
// services.
type MoodLookup interface {
	Mood(ctx context.Context, artist, title string) (lookup.Result, error)
}

// MoodProcessor tags tracks with the configured mood model. With online
// lookup enabled it tries tag services first and falls back to the local
// model on a miss.
type MoodProcessor struct {
	extractor FeatureExtractor
	prober    *Prober
	lookup    MoodLookup
	store     *cache.AnalysisCache
}

func NewMoodProcessor(extractor FeatureExtractor, prober *Prober, moods MoodLookup, store *cache.AnalysisCache) *MoodProcessor {
	return &MoodProcessor{extractor: extractor, prober: prober, lookup: moods, store: store}
}

func (p *MoodProcessor) Describe() string { return "mood analysis" }

func (p *MoodProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	model := config.MoodModel
	if model == "" {
		model = MoodModelMTGJamendo
	}

	kind := cache.MoodKind(model)
	if record := cachedRecord(p.store, path, kind, config.Overwrite); record != nil {
		return record, nil
	}

	if config.OnlineLookup {
		if record := p.onlineMood(ctx, path, kind); record != nil {
			return record, nil
		}
	}

	features, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	var scores map[string]float64
	switch model {
	case MoodModelHeuristic:
		scores = HeuristicMoodScores(features)
	default:
		if len(features.Moods) == 0 {
			return nil, fmt.Errorf("%w: no class probabilities for %s", shared.ErrExtractionFailed, path)
		}

		scores = features.Moods
	}

	value := strings.Join(SelectTopMoods(scores, DefaultMoodThreshold, DefaultMaxMoods), ",")
	p.store.Put(path, kind, value)

	return &models.ResultRecord{Path: path, Kind: kind, Value: value}, nil
}

// onlineMood resolves a mood from tag services when the file carries artist
// and title tags. Misses and lookup failures return nil so the local model
// takes over.
func (p *MoodProcessor) onlineMood(ctx context.Context, path, kind string) *models.ResultRecord {
	if p.lookup == nil || p.prober == nil {
		return nil
	}

	tags, err := p.prober.ReadTags(ctx, path)
	if err != nil || tags.Artist == "" || tags.Title == "" {
		return nil
	}

	result, err := p.lookup.Mood(ctx, tags.Artist, tags.Title)
	if err != nil || result.Value == "" {
		return nil
	}

	p.store.Put(path, kind, result.Value)

	return &models.ResultRecord{Path: path, Kind: kind, Value: result.Value}
}

// GenreLookup resolves a canonical genre for a track, typically through
// online tag services.
type GenreLookup interface {
	Genre(ctx context.Context, artist, title string) (lookup.Result, error)
}

// GenreProcessor assigns canonical genres. With online lookup enabled it
// resolves through tag services; otherwise it normalizes whatever genre
// tag the file already carries.
type GenreProcessor struct {
	prober *Prober
	lookup GenreLookup
	store  *cache.AnalysisCache
}

func NewGenreProcessor(prober *Prober, genres GenreLookup, store *cache.AnalysisCache) *GenreProcessor {
	return &GenreProcessor{prober: prober, lookup: genres, store: store}
}

func (p *GenreProcessor) Describe() string { return "genre tagging" }

func (p *GenreProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	if record := cachedRecord(p.store, path, cache.KindGenre, config.Overwrite); record != nil {
		return record, nil
	}

	tags, err := p.prober.ReadTags(ctx, path)
	if err != nil {
		return nil, err
	}

	var genre string
	if config.OnlineLookup && p.lookup != nil {
		if tags.Artist == "" || tags.Title == "" {
			return nil, fmt.Errorf("%w: artist and title needed for lookup: %s", shared.ErrMissingTags, path)
		}

		result, err := p.lookup.Genre(ctx, tags.Artist, tags.Title)
		if err != nil {
			return nil, err
		}

		genre = result.Value
	} else {
		genre = lookup.NormalizeGenre(tags.Genre)
	}

	if genre == "" {
		return nil, fmt.Errorf("%w: no genre for %s", shared.ErrNoMatch, path)
	}

	p.store.Put(path, cache.KindGenre, genre)

	return &models.ResultRecord{Path: path, Kind: cache.KindGenre, Value: genre}, nil
}

// MIKProcessor imports energy and key tags written by Mixed In Key.
type MIKProcessor struct {
	prober *Prober
	store  *cache.AnalysisCache
}

func NewMIKProcessor(prober *Prober, store *cache.AnalysisCache) *MIKProcessor {
	return &MIKProcessor{prober: prober, store: store}
}

func (p *MIKProcessor) Describe() string { return "Mixed In Key import" }

func (p *MIKProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	if record := cachedRecord(p.store, path, cache.KindMIK, config.Overwrite); record != nil {
		return record, nil
	}

	tags, err := p.prober.ReadTags(ctx, path)
	if err != nil {
		return nil, err
	}

	energy, hasEnergy := tags.MIKEnergy()
	key, hasKey := tags.MIKKey()
	if !hasEnergy && !hasKey {
		return nil, fmt.Errorf("%w: no Mixed In Key tags on %s", shared.ErrMissingTags, path)
	}

	value := MIKValue{Energy: energy, Key: key}.String()
	p.store.Put(path, cache.KindMIK, value)

	return &models.ResultRecord{Path: path, Kind: cache.KindMIK, Value: value}, nil
}

// MeasureProcessor records integrated loudness without touching files.
type MeasureProcessor struct {
	meter *LoudnessMeter
	store *cache.AnalysisCache
}

func NewMeasureProcessor(meter *LoudnessMeter, store *cache.AnalysisCache) *MeasureProcessor {
	return &MeasureProcessor{meter: meter, store: store}
}

func (p *MeasureProcessor) Describe() string { return "loudness measurement" }

func (p *MeasureProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	if record := cachedRecord(p.store, path, cache.KindLoudness, config.Overwrite); record != nil {
		return record, nil
	}

	lufs, err := p.meter.Measure(ctx, path)
	if err != nil {
		return nil, err
	}

	value := strconv.FormatFloat(lufs, 'f', 2, 64)
	p.store.Put(path, cache.KindLoudness, value)

	return &models.ResultRecord{Path: path, Kind: cache.KindLoudness, Value: value}, nil
}

// NormalizeProcessor rewrites files at the target loudness. Results carry
// the applied gain in dB; nothing is cached because the rewrite changes
// the fingerprint every cached kind is keyed on. The backup choice rides
// in the task config so resumed runs keep it.
type NormalizeProcessor struct {
	meter *LoudnessMeter
}

func NewNormalizeProcessor(meter *LoudnessMeter) *NormalizeProcessor {
	return &NormalizeProcessor{meter: meter}
}

func (p *NormalizeProcessor) Describe() string { return "loudness normalization" }

func (p *NormalizeProcessor) Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error) {
	target := config.TargetLUFS
	if target == 0 {
		target = DefaultTargetLUFS
	}

	measured, err := p.meter.MeasureDetailed(ctx, path)
	if err != nil {
		return nil, err
	}

	gain := GainDB(target, measured.Integrated)
	if err := p.meter.Normalize(ctx, path, target, measured, config.Backup); err != nil {
		return nil, err
	}

	value := strconv.FormatFloat(gain, 'f', 2, 64)
	return &models.ResultRecord{Path: path, Kind: KindNormalize, Value: value}, nil
}
