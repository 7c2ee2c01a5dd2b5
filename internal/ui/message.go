package ui

import (
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/tasks"
)

// tasksLoadedMsg carries the checkpoint snapshots read from the store.
type tasksLoadedMsg struct {
	states []*models.TaskState
}

// eventMsg wraps one [tasks.Event] drained from a live run.
type eventMsg tasks.Event

// runDoneMsg signals that the engine goroutine returned.
type runDoneMsg struct {
	err error
}
