package library

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/tasks"
)

// Applier stages batch-run result records and flushes them into the track
// catalog once per checkpointed batch.
//
// It is meant to live on the one goroutine that drains an engine's event
// channel and is not safe for concurrent use. Workers never write to the
// catalog directly; everything funnels through here.
type Applier struct {
	repo    *TrackRepository
	logger  *log.Logger
	staged  []*models.ResultRecord
	applied int
}

// NewApplier wires an applier to the catalog.
func NewApplier(repo *TrackRepository, logger *log.Logger) *Applier {
	if logger == nil {
		logger = log.Default()
	}

	return &Applier{repo: repo, logger: logger}
}

// Stage queues one result record for the next flush. Nil records and
// records carrying an item error are dropped.
func (a *Applier) Stage(record *models.ResultRecord) {
	if record == nil || record.Error != "" {
		return
	}

	a.staged = append(a.staged, record)
}

// Flush writes every staged record in one transaction. On failure the
// records stay staged so the next flush point retries them.
func (a *Applier) Flush() error {
	if len(a.staged) == 0 {
		return nil
	}

	applied, err := a.repo.ApplyResults(a.staged)
	if err != nil {
		return err
	}

	a.logger.Debug("applied results to catalog", "staged", len(a.staged), "rows", applied)
	a.applied += applied
	a.staged = nil

	return nil
}

// HandleEvent feeds one engine event through the applier: results are
// staged, and batch-complete or finished events trigger a flush. Other
// event kinds pass through untouched.
func (a *Applier) HandleEvent(event tasks.Event) {
	switch event.Kind {
	case tasks.EventResult:
		a.Stage(event.Result)
	case tasks.EventBatchComplete, tasks.EventFinished:
		if err := a.Flush(); err != nil {
			a.logger.Error("failed to apply result batch", "task", event.TaskID, "error", err)
		}
	}
}

// Applied returns the total number of catalog rows changed so far.
func (a *Applier) Applied() int { return a.applied }

// Pending returns how many records await the next flush.
func (a *Applier) Pending() int { return len(a.staged) }
