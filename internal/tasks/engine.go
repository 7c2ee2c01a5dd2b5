package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/trax/internal/checkpoints"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// Batch sizing defaults. Tasks that rewrite audio files checkpoint in
// smaller batches so an interruption risks less repeated work.
const (
	DefaultBatchSize     = 50
	DestructiveBatchSize = 10
)

// BatchSizeFor returns the default batch size for a task type when the
// config leaves it unset.
func BatchSizeFor(t models.TaskType) int {
	if t == models.TaskNormalize {
		return DestructiveBatchSize
	}

	return DefaultBatchSize
}

// ItemProcessor performs one task type's work on a single subject path.
// Implementations live in the analysis package; the engine stays generic.
type ItemProcessor interface {
	// Process handles one file and returns the record to persist and emit.
	// A nil record with nil error means the item was handled but produced
	// nothing to report (e.g. skipped because a value already exists).
	Process(ctx context.Context, path string, config models.TaskConfig) (*models.ResultRecord, error)

	// Describe names the operation for logs and messages, e.g. "energy analysis".
	Describe() string
}

// BatchEngine drives one task through its pending paths in fixed-size,
// order-preserving batches, checkpointing after every batch.
//
// The engine owns its TaskState for the duration of Run; Pause, Resume, and
// Cancel are the only safe calls from other goroutines while it runs.
type BatchEngine struct {
	store     *checkpoints.Store
	state     *models.TaskState
	processor ItemProcessor
	logger    *log.Logger
	control   *control
}

// NewBatchEngine wires a task snapshot to its processor and checkpoint store.
// A nil store runs the task ephemerally, with no snapshots written.
func NewBatchEngine(store *checkpoints.Store, state *models.TaskState, processor ItemProcessor, logger *log.Logger) *BatchEngine {
	if logger == nil {
		logger = log.Default()
	}

	return &BatchEngine{
		store:     store,
		state:     state,
		processor: processor,
		logger:    shared.WithLogger(logger),
		control:   newControl(),
	}
}

// TaskID returns the id of the task this engine drives.
func (e *BatchEngine) TaskID() string {
	return e.state.TaskID
}

// State exposes the underlying snapshot. Only safe to read before Run
// starts or after it returns.
func (e *BatchEngine) State() *models.TaskState {
	return e.state
}

// Pause requests a pause at the next item boundary.
func (e *BatchEngine) Pause() {
	if e.control.pause() {
		e.logger.Info("pause requested")
	}
}

// Resume wakes a paused run.
func (e *BatchEngine) Resume() {
	if e.control.resume() {
		e.logger.Info("resume requested")
	}
}

// Cancel stops the run at the next item boundary, waking it first if paused.
// A cancelled task is terminal and cannot be resumed.
func (e *BatchEngine) Cancel() {
	if e.control.cancel() {
		e.logger.Info("cancel requested")
	}
}

// saveCheckpoint persists the snapshot when a store is configured.
func (e *BatchEngine) saveCheckpoint(state *models.TaskState) error {
	if e.store == nil {
		return nil
	}

	return e.store.Save(state, true)
}

// sendEvent sends an event through the channel without blocking.
// Uses select with default so a slow or absent listener never stalls the run.
func (e *BatchEngine) sendEvent(events chan<- Event, event Event) {
	if events == nil {
		return
	}
	select {
	case events <- event:
		// Sent successfully
	default:
		// Channel full, skip this event
	}
}

// Run processes every pending path, batch by batch, until done, cancelled,
// or the context ends. It accepts fresh tasks (pending) and resumable ones
// (paused, or running when a previous process died mid-task). Items that
// fail are recorded and skipped; only engine-level problems end the run
// with an error.
func (e *BatchEngine) Run(ctx context.Context, events chan<- Event) error {
	state := e.state

	switch state.Status {
	case models.StatusPending, models.StatusPaused:
		if err := state.Transition(models.StatusRunning); err != nil {
			return err
		}
	case models.StatusRunning:
		// A crashed run left the snapshot in running; pick it back up.
		state.Touch()
	default:
		return fmt.Errorf("%w: task %s is %s", shared.ErrTaskNotResumable, state.TaskID, state.Status)
	}

	// A context cancellation behaves exactly like an explicit Cancel call,
	// including waking a paused run.
	stop := context.AfterFunc(ctx, e.Cancel)
	defer stop()

	e.sendEvent(events, statusChangedEvent(state.TaskID, state.Status))
	if err := e.saveCheckpoint(state); err != nil {
		return e.failRun(events, fmt.Errorf("checkpoint write failed: %w", err))
	}

	e.logger.Info("task started", "type", state.TaskType,
		"operation", e.processor.Describe(), "pending", len(state.PendingPaths), "total", state.TotalItems)

	pending := append([]string{}, state.PendingPaths...)
	if len(pending) == 0 {
		return e.finish(events)
	}

	batchSize := state.Config.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSizeFor(state.TaskType)
	}
	totalBatches := (len(pending) + batchSize - 1) / batchSize

	batch := 0
	for start := 0; start < len(pending); start += batchSize {
		batch++
		end := min(start+batchSize, len(pending))

		for _, path := range pending[start:end] {
			if !e.checkControl(events) {
				return e.cancelRun(events)
			}

			record, err := e.processor.Process(ctx, path, state.Config)
			if err != nil {
				state.MarkFailed(path, err.Error())
				e.logger.Warn("item failed", "path", path, "error", err)
				e.sendEvent(events, resultEvent(state.TaskID, &models.ResultRecord{Path: path, Error: err.Error()}))
			} else {
				state.MarkCompleted(path, record)
				if record != nil {
					e.sendEvent(events, resultEvent(state.TaskID, record))
				}
			}

			e.sendEvent(events, progressEvent(state, path))
		}

		// Losing the batch checkpoint breaks the durability contract, so the
		// run ends in FAILED rather than continuing without resumability.
		if err := e.saveCheckpoint(state); err != nil {
			return e.failRun(events, fmt.Errorf("checkpoint write failed after batch %d: %w", batch, err))
		}

		e.sendEvent(events, batchCompleteEvent(state.TaskID, batch, totalBatches))
	}

	return e.finish(events)
}

// checkControl handles pending pause and cancel requests at an item
// boundary. Returns false when the run should stop.
func (e *BatchEngine) checkControl(events chan<- Event) bool {
	if e.control.isCancelled() {
		return false
	}
	if !e.control.isPaused() {
		return true
	}

	state := e.state
	if err := state.Transition(models.StatusPaused); err == nil {
		if err := e.saveCheckpoint(state); err != nil {
			e.logger.Warn("checkpoint write failed", "error", err)
		}

		e.sendEvent(events, statusChangedEvent(state.TaskID, models.StatusPaused))
		e.logger.Info("task paused", "processed", state.ProcessedCount())
	}

	if !e.control.awaitResume() {
		return false
	}

	if err := state.Transition(models.StatusRunning); err != nil {
		e.logger.Error("failed to leave paused status", "error", err)
		return false
	}

	if err := e.saveCheckpoint(state); err != nil {
		e.logger.Warn("checkpoint write failed", "error", err)
	}

	e.sendEvent(events, statusChangedEvent(state.TaskID, models.StatusRunning))
	e.logger.Info("task resumed", "remaining", len(state.PendingPaths))

	return true
}

func (e *BatchEngine) cancelRun(events chan<- Event) error {
	state := e.state

	if err := state.Transition(models.StatusCancelled); err != nil {
		return err
	}

	e.sendEvent(events, statusChangedEvent(state.TaskID, models.StatusCancelled))

	if err := e.saveCheckpoint(state); err != nil {
		return err
	}

	e.logger.Info("task cancelled",
		"processed", state.ProcessedCount(), "remaining", len(state.PendingPaths))
	e.sendEvent(events, finishedEvent(state.TaskID, false, "Cancelled by user"))

	return nil
}

// failRun ends the run after an engine-level fault. The FAILED status is
// persisted best-effort; the original fault is what the caller sees.
func (e *BatchEngine) failRun(events chan<- Event, cause error) error {
	state := e.state

	if err := state.Transition(models.StatusFailed); err != nil {
		e.logger.Error("could not mark task failed", "error", err)
	} else {
		e.sendEvent(events, statusChangedEvent(state.TaskID, models.StatusFailed))
		if err := e.saveCheckpoint(state); err != nil {
			e.logger.Warn("could not persist failed status", "error", err)
		}
	}

	e.logger.Error("task failed", "error", cause)
	e.sendEvent(events, finishedEvent(state.TaskID, false, cause.Error()))

	return cause
}

func (e *BatchEngine) finish(events chan<- Event) error {
	state := e.state

	var message string
	if len(state.FailedPaths) > 0 {
		message = fmt.Sprintf("Completed with %d failures out of %d items", len(state.FailedPaths), state.TotalItems)
	} else {
		message = fmt.Sprintf("Successfully processed %d items", len(state.CompletedPaths))
	}

	if err := state.Transition(models.StatusCompleted); err != nil {
		return err
	}

	e.sendEvent(events, statusChangedEvent(state.TaskID, models.StatusCompleted))

	if err := e.saveCheckpoint(state); err != nil {
		return err
	}

	e.logger.Info("task finished",
		"completed", len(state.CompletedPaths), "failed", len(state.FailedPaths))
	e.sendEvent(events, finishedEvent(state.TaskID, true, message))

	return nil
}
