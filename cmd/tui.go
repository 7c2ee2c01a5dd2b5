package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/library"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/desertthunder/trax/internal/tasks"
	"github.com/desertthunder/trax/internal/ui"
	"github.com/urfave/cli/v3"
)

// TasksUI launches the interactive task monitor over the checkpoint store.
func (r *Runner) TasksUI(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheStore, err := cache.New(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open analysis cache: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/trax-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	store, err := r.openStore(config)
	if err != nil {
		return err
	}

	repo := library.NewTrackRepository(db)
	applier := library.NewApplier(repo, fileLogger)

	launcher := func(state *models.TaskState) (*tasks.BatchEngine, error) {
		processor, err := r.buildProcessor(state.TaskType, config, cacheStore)
		if err != nil {
			return nil, err
		}
		return tasks.NewBatchEngine(store, state, processor, fileLogger), nil
	}

	model := ui.NewModel(ctx, store, launcher, applier.HandleEvent)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := applier.Flush(); err != nil {
		fileLogger.Warn("failed to flush catalog updates", "error", err)
	}

	return nil
}
