package tasks

import (
	"fmt"
	"path/filepath"

	"github.com/desertthunder/trax/internal/models"
)

// Event is a progress notification emitted during a batch run.
//
// Every event carries the task id, kind, and a human-readable message; the
// remaining fields are populated per kind. Listeners receive events on a
// channel and must not assume every event arrives, since sends never block.
type Event struct {
	Kind    EventKind // Event discriminator
	TaskID  string    // Owning task
	Message string    // Human-readable message for display

	Processed int     // Items handled so far (progress)
	Total     int     // Total items in the task (progress)
	Percent   float64 // Progress share, 0-100 (progress)

	Result *models.ResultRecord // Per-item outcome (result)

	Batch        int // Checkpointed batch number, 1-based (batch_complete)
	TotalBatches int // Batch count for this run (batch_complete)

	Status models.TaskStatus // New status (status_changed)

	Success bool // Whether the run finished cleanly (finished)
}

// Event kind enumeration
type EventKind int

const (
	EventProgress EventKind = iota
	EventResult
	EventBatchComplete
	EventStatusChanged
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventResult:
		return "result"
	case EventBatchComplete:
		return "batch_complete"
	case EventStatusChanged:
		return "status_changed"
	case EventFinished:
		return "finished"
	default:
		return ""
	}
}

func progressEvent(state *models.TaskState, path string) Event {
	processed := state.ProcessedCount()
	return Event{
		Kind:      EventProgress,
		TaskID:    state.TaskID,
		Message:   fmt.Sprintf("[%d/%d] %s", processed, state.TotalItems, filepath.Base(path)),
		Processed: processed,
		Total:     state.TotalItems,
		Percent:   state.ProgressPercent(),
	}
}

func resultEvent(taskID string, record *models.ResultRecord) Event {
	detail := record.Value
	if record.Error != "" {
		detail = record.Error
	}

	return Event{
		Kind:    EventResult,
		TaskID:  taskID,
		Message: fmt.Sprintf("%s: %s", filepath.Base(record.Path), detail),
		Result:  record,
	}
}

func batchCompleteEvent(taskID string, batch, totalBatches int) Event {
	return Event{
		Kind:         EventBatchComplete,
		TaskID:       taskID,
		Message:      fmt.Sprintf("Checkpoint saved (batch %d/%d)", batch, totalBatches),
		Batch:        batch,
		TotalBatches: totalBatches,
	}
}

func statusChangedEvent(taskID string, status models.TaskStatus) Event {
	return Event{
		Kind:    EventStatusChanged,
		TaskID:  taskID,
		Message: fmt.Sprintf("Status: %s", status),
		Status:  status,
	}
}

func finishedEvent(taskID string, success bool, message string) Event {
	return Event{
		Kind:    EventFinished,
		TaskID:  taskID,
		Message: message,
		Success: success,
	}
}
