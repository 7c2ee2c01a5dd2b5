package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/analysis"
	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/checkpoints"
	"github.com/desertthunder/trax/internal/lookup"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/desertthunder/trax/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to redirect logging to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, libraryCommand, analyzeCommand, measureCommand, normalizeCommand, tasksCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration from the command's --config flag. A
// missing or unreadable file falls back to the runner's current config
// so every command works before setup has run.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}

	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return r.config
	}

	r.config = config
	r.configPath = path
	return config
}

// openDatabase opens the configured SQLite database and brings the schema
// up to date. Migrations already applied are skipped, so running them on
// every open is safe.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// openStore opens the checkpoint store at the configured directory.
func (r *Runner) openStore(config *shared.Config) (*checkpoints.Store, error) {
	store, err := checkpoints.NewStore(config.Checkpoints.Dir, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return store, nil
}

// buildProcessor constructs the analyzer matching a task type, wired to
// the external tools and cache the config points at.
func (r *Runner) buildProcessor(taskType models.TaskType, config *shared.Config, store *cache.AnalysisCache) (tasks.ItemProcessor, error) {
	switch taskType {
	case models.TaskAnalyzeEnergy:
		extractor := analysis.NewEssentiaExtractor(config.Analysis.Extractor, r.logger)
		return analysis.NewEnergyProcessor(extractor, store), nil
	case models.TaskAnalyzeMood:
		extractor := analysis.NewEssentiaExtractor(config.Analysis.Extractor, r.logger)
		prober := analysis.NewProber(config.Analysis.FFprobe, r.logger)
		moods, err := r.buildLookupClient(config)
		if err != nil {
			return nil, err
		}
		return analysis.NewMoodProcessor(extractor, prober, moods, store), nil
	case models.TaskAnalyzeGenre:
		prober := analysis.NewProber(config.Analysis.FFprobe, r.logger)
		genres, err := r.buildLookupClient(config)
		if err != nil {
			return nil, err
		}
		return analysis.NewGenreProcessor(prober, genres, store), nil
	case models.TaskImportMIK:
		prober := analysis.NewProber(config.Analysis.FFprobe, r.logger)
		return analysis.NewMIKProcessor(prober, store), nil
	case models.TaskMeasure:
		meter := analysis.NewLoudnessMeter(config.Analysis.FFmpeg, r.logger)
		return analysis.NewMeasureProcessor(meter, store), nil
	case models.TaskNormalize:
		meter := analysis.NewLoudnessMeter(config.Analysis.FFmpeg, r.logger)
		return analysis.NewNormalizeProcessor(meter), nil
	default:
		return nil, fmt.Errorf("%w: no processor for task type %q", shared.ErrInvalidInput, taskType)
	}
}

// buildLookupClient assembles the online tag lookup chain from configured
// credentials. Missing Spotify credentials degrade to the Last.fm and
// MusicBrainz fallbacks rather than failing.
func (r *Runner) buildLookupClient(config *shared.Config) (*lookup.Client, error) {
	var spotify *lookup.SpotifyClient

	creds := config.Credentials.Spotify
	if creds.ClientID != "" && creds.ClientSecret != "" {
		client, err := lookup.NewSpotifyClient(creds.ClientID, creds.ClientSecret, r.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build Spotify client: %w", err)
		}
		client.Authenticate(context.Background())
		spotify = client
	}

	return lookup.NewClient(config.Credentials.LastFM.APIKey, spotify, r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
