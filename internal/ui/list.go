package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/trax/internal/models"
)

var (
	_ list.Item = taskItem{}
)

// taskItem wraps [models.TaskState] to implement [list.Item].
type taskItem struct {
	state *models.TaskState
}

func (i taskItem) FilterValue() string { return i.state.TaskID }
func (i taskItem) Title() string       { return i.state.TaskID }
func (i taskItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %d/%d processed",
		i.state.TaskType, i.state.Status, i.state.ProcessedCount(), i.state.TotalItems)
	if i.state.IsResumable() {
		desc = fmt.Sprintf("%s • resumable", desc)
	}
	return desc
}
