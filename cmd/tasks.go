package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// pendingPreview bounds how many upcoming paths `tasks show` prints.
const pendingPreview = 5

// TasksList prints every task checkpoint, most recent first.
func (r *Runner) TasksList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	var states []*models.TaskState
	switch {
	case cmd.Bool("resumable"):
		states = store.ListResumable()
	case cmd.Bool("incomplete"):
		states = store.ListIncomplete()
	default:
		states = store.List()
	}

	if cmd.Bool("json") {
		return r.writeJSON(states, true)
	}

	if len(states) == 0 {
		return r.writePlain("No task checkpoints found\n")
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"TASK ID", "TYPE", "STATUS", "PROGRESS", "ITEMS", "UPDATED"})

	for _, state := range states {
		tbl.AppendRow(table.Row{
			state.TaskID,
			state.TaskType,
			state.Status,
			fmt.Sprintf("%.1f%%", state.ProgressPercent()),
			fmt.Sprintf("%d/%d", state.ProcessedCount(), state.TotalItems),
			humanize.Time(state.Updated),
		})
	}

	return r.writePlain("%s\n", tbl.Render())
}

// TasksShow prints one checkpoint in detail, including its failures and a
// preview of what would run next.
func (r *Runner) TasksShow(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	taskID := cmd.StringArg("id")
	if taskID == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	state, err := store.Load(taskID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}

	r.writePlainHeader(state.TaskID)
	r.writePlain("Type: %s\n", state.TaskType)
	r.writePlain("Status: %s\n", state.Status)
	r.writePlain("Progress: %d/%d (%.1f%%)\n", state.ProcessedCount(), state.TotalItems, state.ProgressPercent())
	r.writePlain("Created: %s (%s)\n", state.Created.Format(time.RFC3339), humanize.Time(state.Created))
	r.writePlain("Updated: %s (%s)\n", state.Updated.Format(time.RFC3339), humanize.Time(state.Updated))
	if state.IsResumable() {
		r.writePlain("Resumable: yes (trax tasks resume %s)\n", state.TaskID)
	}

	if len(state.FailedPaths) > 0 {
		r.writePlainln("%d failed:", len(state.FailedPaths))

		paths := make([]string, 0, len(state.FailedPaths))
		for path := range state.FailedPaths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			r.writePlain("  - %s: %s\n", filepath.Base(path), state.FailedPaths[path])
		}
	}

	if pending := len(state.PendingPaths); pending > 0 {
		r.writePlainln("%d pending, next up:", pending)
		for i, path := range state.PendingPaths {
			if i == pendingPreview {
				r.writePlain("  … and %d more\n", pending-pendingPreview)
				break
			}
			r.writePlain("  - %s\n", filepath.Base(path))
		}
	}

	return nil
}

// TasksResume reloads a checkpoint and continues processing where it left off.
func (r *Runner) TasksResume(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	taskID := cmd.StringArg("id")
	if taskID == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	state, err := store.Load(taskID)
	if err != nil {
		return err
	}
	if !state.IsResumable() {
		return fmt.Errorf("%w: task %s is %s", shared.ErrTaskNotResumable, taskID, state.Status)
	}

	r.logger.Info("resuming task", "task", taskID, "remaining", len(state.PendingPaths))

	return r.runTaskState(ctx, config, db, store, state)
}

// TasksCancel marks a paused or interrupted task cancelled. The checkpoint
// stays on disk so completed work remains visible.
func (r *Runner) TasksCancel(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	taskID := cmd.StringArg("id")
	if taskID == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	state, err := store.Load(taskID)
	if err != nil {
		return err
	}

	if state.IsComplete() {
		return fmt.Errorf("%w: task %s is already %s", shared.ErrTaskAlreadyFinal, taskID, state.Status)
	}

	if err := state.Transition(models.StatusCancelled); err != nil {
		return err
	}

	if err := store.Save(state, true); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	r.logger.Info("task cancelled", "task", taskID, "remaining", len(state.PendingPaths))
	r.writePlain("✓ Task %s cancelled (%d items left unprocessed)\n", taskID, len(state.PendingPaths))
	return nil
}

// TasksCleanup deletes finished checkpoints older than the cutoff.
func (r *Runner) TasksCleanup(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	days := cmd.Int("days")

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	removed := store.CleanupCompleted(days)
	if removed == 0 {
		return r.writePlain("No finished checkpoints older than %d days\n", days)
	}

	r.writePlain("✓ Removed %d finished checkpoint(s) older than %d days\n", removed, days)
	return nil
}
