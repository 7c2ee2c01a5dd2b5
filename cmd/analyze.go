package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/checkpoints"
	"github.com/desertthunder/trax/internal/library"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/desertthunder/trax/internal/tasks"
	"github.com/urfave/cli/v3"
)

const eventBuffer = 50

// AnalyzeEnergy rates tracks 1-10 by danceable intensity.
func (r *Runner) AnalyzeEnergy(ctx context.Context, cmd *cli.Command) error {
	return r.runBatchTask(ctx, cmd, models.TaskAnalyzeEnergy)
}

// AnalyzeMood tags tracks with mood labels.
func (r *Runner) AnalyzeMood(ctx context.Context, cmd *cli.Command) error {
	return r.runBatchTask(ctx, cmd, models.TaskAnalyzeMood)
}

// AnalyzeGenre assigns canonical genres from file tags and online lookups.
func (r *Runner) AnalyzeGenre(ctx context.Context, cmd *cli.Command) error {
	return r.runBatchTask(ctx, cmd, models.TaskAnalyzeGenre)
}

// AnalyzeMIK imports Mixed In Key energy and key tags.
func (r *Runner) AnalyzeMIK(ctx context.Context, cmd *cli.Command) error {
	return r.runBatchTask(ctx, cmd, models.TaskImportMIK)
}

// runBatchTask creates a task from the command's flags, or reloads one via
// --resume, and drives it to its end state.
func (r *Runner) runBatchTask(ctx context.Context, cmd *cli.Command, taskType models.TaskType) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	var state *models.TaskState
	if taskID := cmd.String("resume"); taskID != "" {
		state, err = store.Load(taskID)
		if err != nil {
			return err
		}
		if state.TaskType != taskType {
			return fmt.Errorf("%w: task %s is a %s task", shared.ErrInvalidArgument, taskID, state.TaskType)
		}
		if !state.IsResumable() {
			return fmt.Errorf("%w: task %s is %s", shared.ErrTaskNotResumable, taskID, state.Status)
		}
	} else {
		paths, err := r.collectPaths(cmd, config)
		if err != nil {
			return err
		}

		taskConfig, err := taskConfigFromFlags(cmd, taskType, config)
		if err != nil {
			return err
		}

		state, err = store.CreateTask(taskType, paths, taskConfig)
		if err != nil {
			return err
		}

		r.logger.Info("task created", "task", state.TaskID, "type", taskType, "items", state.TotalItems)
	}

	return r.runTaskState(ctx, config, db, store, state)
}

// collectPaths resolves the subject paths for a new task: an explicit
// --path (file or directory) or the configured library root.
func (r *Runner) collectPaths(cmd *cli.Command, config *shared.Config) ([]string, error) {
	root := cmd.String("path")
	if root == "" {
		root = config.Library.Root
	}
	if root == "" {
		return nil, fmt.Errorf("%w: no library root configured and no --path given", shared.ErrMissingArgument)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrLibraryMissing, root)
	}

	if !info.IsDir() {
		if !library.IsAudioFile(root) {
			return nil, fmt.Errorf("%w: %s is not an audio file", shared.ErrInvalidArgument, root)
		}
		return []string{root}, nil
	}

	paths, err := library.FindAudioFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no audio files under %s", shared.ErrInvalidInput, root)
	}

	return paths, nil
}

// taskConfigFromFlags builds and validates the config for a new task. Flag
// zero values fall back to the config file's analysis defaults.
func taskConfigFromFlags(cmd *cli.Command, taskType models.TaskType, config *shared.Config) (models.TaskConfig, error) {
	taskConfig := models.TaskConfig{
		BatchSize: cmd.Int("batch-size"),
		Overwrite: cmd.Bool("overwrite"),
	}

	switch taskType {
	case models.TaskAnalyzeMood:
		taskConfig.MoodModel = cmd.String("model")
		if taskConfig.MoodModel == "" {
			taskConfig.MoodModel = config.Analysis.MoodModel
		}
		taskConfig.OnlineLookup = cmd.Bool("online")
	case models.TaskAnalyzeGenre:
		taskConfig.OnlineLookup = cmd.Bool("online")
	case models.TaskNormalize:
		taskConfig.TargetLUFS = cmd.Float("target")
		if taskConfig.TargetLUFS == 0 {
			taskConfig.TargetLUFS = config.Analysis.TargetLUFS
		}
		taskConfig.Backup = cmd.Bool("backup")
	}

	if taskConfig.BatchSize == 0 {
		if taskType == models.TaskNormalize {
			taskConfig.BatchSize = config.Analysis.DestructiveBatchSize
		} else {
			taskConfig.BatchSize = config.Analysis.BatchSize
		}
	}

	if err := taskConfig.ValidateFor(taskType); err != nil {
		return models.TaskConfig{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	return taskConfig, nil
}

// runTaskState drives one checkpointed task to its end state, rendering
// engine events and folding results into the catalog as batches commit.
func (r *Runner) runTaskState(ctx context.Context, config *shared.Config, db *sql.DB, store *checkpoints.Store, state *models.TaskState) error {
	cacheStore, err := cache.New(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open analysis cache: %w", err)
	}

	processor, err := r.buildProcessor(state.TaskType, config, cacheStore)
	if err != nil {
		return err
	}

	repo := library.NewTrackRepository(db)
	applier := library.NewApplier(repo, r.logger)
	engine := tasks.NewBatchEngine(store, state, processor, r.logger)

	r.writePlain("Task %s: %s, %d of %d items pending\n",
		state.TaskID, state.TaskType, len(state.PendingPaths), state.TotalItems)

	if kind := cacheKindFor(state); kind != "" && !state.Config.Overwrite {
		if hits := cacheStore.GetBatch(state.PendingPaths, kind); len(hits) > 0 {
			r.writePlain("Cached results available for %d of %d items\n", len(hits), len(state.PendingPaths))
		}
	}
	r.writePlain("\n")

	// The applier stages results and flushes once per committed batch, so
	// catalog writes stay on this goroutine and off the engine's.
	events := make(chan tasks.Event, eventBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			applier.HandleEvent(event)
			switch event.Kind {
			case tasks.EventResult:
				if event.Result != nil && event.Result.Error != "" {
					r.writePlain("⚠ %s\n", event.Message)
				} else {
					r.writePlain("  %s\n", event.Message)
				}
			case tasks.EventBatchComplete:
				r.writePlain("✓ %s\n", event.Message)
			}
		}
	}()

	runErr := engine.Run(ctx, events)
	close(events)
	<-done

	if err := applier.Flush(); err != nil {
		r.logger.Warn("failed to flush catalog updates", "task", state.TaskID, "error", err)
	}

	// Events are dropped when the channel is full, so sweep the full result
	// log into the catalog. The updates are idempotent.
	applied, err := applyAllResults(repo, state)
	if err != nil {
		r.logger.Warn("failed to apply results to catalog", "task", state.TaskID, "error", err)
	}

	if runErr != nil {
		return runErr
	}

	r.printTaskSummary(state, applied)
	return nil
}

// cacheKindFor names the result kind a task's processor caches under.
// Normalize rewrites files instead of caching, so it reports no kind.
func cacheKindFor(state *models.TaskState) string {
	switch state.TaskType {
	case models.TaskAnalyzeEnergy:
		return cache.KindEnergy
	case models.TaskAnalyzeMood:
		return cache.MoodKind(state.Config.MoodModel)
	case models.TaskAnalyzeGenre:
		return cache.KindGenre
	case models.TaskImportMIK:
		return cache.KindMIK
	case models.TaskMeasure:
		return cache.KindLoudness
	default:
		return ""
	}
}

func applyAllResults(repo *library.TrackRepository, state *models.TaskState) (int, error) {
	if len(state.Results) == 0 {
		return 0, nil
	}

	records := make([]*models.ResultRecord, len(state.Results))
	for i := range state.Results {
		records[i] = &state.Results[i]
	}

	return repo.ApplyResults(records)
}

func (r *Runner) printTaskSummary(state *models.TaskState, applied int) {
	r.writePlain("\n")
	switch state.Status {
	case models.StatusCancelled:
		r.writePlainHeader("Task Cancelled")
	default:
		r.writePlainHeader("Task Complete!")
	}

	r.writePlain("Task: %s\n", state.TaskID)
	r.writePlain("Processed: %d/%d (%.1f%%)\n", state.ProcessedCount(), state.TotalItems, state.ProgressPercent())
	if applied > 0 {
		r.writePlain("Catalog updates: %d\n", applied)
	}

	if len(state.FailedPaths) > 0 {
		r.writePlain("\n%d of %d failed:\n", len(state.FailedPaths), state.TotalItems)

		paths := make([]string, 0, len(state.FailedPaths))
		for path := range state.FailedPaths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			r.writePlain("  - %s: %s\n", filepath.Base(path), state.FailedPaths[path])
		}
	}

	if state.Status == models.StatusCancelled && len(state.PendingPaths) > 0 {
		r.writePlain("\n%d items left unprocessed; the checkpoint was kept.\n", len(state.PendingPaths))
	}
}
