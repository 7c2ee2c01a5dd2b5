package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trax/internal/checkpoints"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/tasks"
)

// eventBuffer sizes the run event channel. The engine drops events rather
// than block, so the buffer only needs to absorb short render stalls.
const eventBuffer = 50

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TaskListView ViewState = iota
	ProgressView
	ResultView
)

// EngineLauncher builds a ready-to-run engine for a checkpoint snapshot.
// The caller wires the processor matching the task type; the monitor only
// drives the run.
type EngineLauncher func(state *models.TaskState) (*tasks.BatchEngine, error)

// EventObserver receives every event the monitor drains from a run, in
// order, on the update goroutine. Used to feed result persistence without
// coupling this package to the storage layer.
type EventObserver func(event tasks.Event)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	store    *checkpoints.Store
	launcher EngineLauncher
	observer EventObserver
	width    int
	height   int
	taskList list.Model
	selected *models.TaskState
	engine   *tasks.BatchEngine
	events   chan tasks.Event

	// runFailure is written by the run goroutine before it closes the
	// event channel; reads happen only after the close is observed.
	runFailure error
	runErr     error

	status     models.TaskStatus
	progress   tasks.Event
	lastResult string
	checkpoint string
	finished   string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model over a checkpoint store. The launcher is
// invoked when the user resumes a task; the observer may be nil.
func NewModel(ctx context.Context, store *checkpoints.Store, launcher EngineLauncher, observer EventObserver) *Model {
	return &Model{
		ctx:      ctx,
		view:     TaskListView,
		store:    store,
		launcher: launcher,
		observer: observer,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading checkpoint snapshots.
func (m *Model) Init() tea.Cmd {
	return m.loadTasks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.taskList.Width() == 0 {
			m.taskList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.err != nil && m.view != ResultView {
			return m.handleErrorKeys(msg)
		}
		switch m.view {
		case TaskListView:
			return m.handleTaskListKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case tasksLoadedMsg:
		items := make([]list.Item, len(msg.states))
		for i, state := range msg.states {
			items[i] = taskItem{state: state}
		}
		m.taskList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.taskList.Title = "Task Checkpoints"
		m.taskList.SetSize(m.width-4, m.height-8)
		return m, nil

	case eventMsg:
		m.applyEvent(tasks.Event(msg))
		return m, m.waitForEvent()

	case runDoneMsg:
		m.runErr = msg.err
		m.events = nil
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case TaskListView:
		return m.renderTaskList()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// applyEvent folds one run event into the display state and forwards it to
// the observer.
func (m *Model) applyEvent(event tasks.Event) {
	if m.observer != nil {
		m.observer(event)
	}

	switch event.Kind {
	case tasks.EventProgress:
		m.progress = event
	case tasks.EventResult:
		m.lastResult = event.Message
	case tasks.EventBatchComplete:
		m.checkpoint = event.Message
	case tasks.EventStatusChanged:
		m.status = event.Status
	case tasks.EventFinished:
		m.finished = event.Message
	}
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.err = nil
		m.view = TaskListView
		return m, m.loadTasks()
	}
	return m, nil
}

func (m *Model) handleTaskListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.taskList.SelectedItem()
		if selected == nil {
			return m, nil
		}
		item, ok := selected.(taskItem)
		if !ok {
			return m, nil
		}

		m.selected = item.state
		if item.state.IsResumable() {
			cmd := m.startRun(item.state)
			if cmd == nil {
				return m, nil
			}
			m.view = ProgressView
			return m, cmd
		}

		m.view = ResultView
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// The last checkpoint survives the exit, so the task stays
		// resumable from the list next time.
		return m, tea.Quit
	case "p":
		if m.engine != nil {
			m.engine.Pause()
		}
	case "r":
		if m.engine != nil {
			m.engine.Resume()
		}
	case "c":
		if m.engine != nil {
			m.engine.Cancel()
		}
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TaskListView
		m.selected = nil
		m.engine = nil
		m.runErr = nil
		m.err = nil
		return m, m.loadTasks()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != TaskListView {
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{states: m.store.List()}
	}
}

// startRun launches the engine for a resumable snapshot. Returns nil and
// records the error when the launcher fails.
func (m *Model) startRun(state *models.TaskState) tea.Cmd {
	engine, err := m.launcher(state)
	if err != nil {
		m.err = err
		return nil
	}

	m.engine = engine
	m.events = make(chan tasks.Event, eventBuffer)
	m.runFailure = nil
	m.runErr = nil
	m.status = state.Status
	m.progress = tasks.Event{}
	m.lastResult = ""
	m.checkpoint = ""
	m.finished = ""

	events := m.events
	go func() {
		m.runFailure = engine.Run(m.ctx, events)
		close(events)
	}()

	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		if events == nil {
			return runDoneMsg{err: m.runFailure}
		}

		event, ok := <-events
		if !ok {
			return runDoneMsg{err: m.runFailure}
		}
		return eventMsg(event)
	}
}

func (m *Model) renderTaskList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.taskList.View(), helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render(fmt.Sprintf("Monitoring %s", m.selected.TaskID))

	progress := "Waiting for first item..."
	if m.progress.Total > 0 {
		progress = fmt.Sprintf("%s (%.1f%%)", m.progress.Message, m.progress.Percent)
	}

	body := fmt.Sprintf("Status: %s\n%s", m.renderStatus(), progress)
	if m.lastResult != "" {
		body = fmt.Sprintf("%s\n%s", body, m.lastResult)
	}
	if m.checkpoint != "" {
		body = fmt.Sprintf("%s\n%s", body, styles.help.Render(m.checkpoint))
	}

	helpKeys := []key.Binding{m.keys.pause, m.keys.resume, m.keys.cancel, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderStatus() string {
	switch m.status {
	case models.StatusRunning, models.StatusCompleted:
		return styles.ok.Render(m.status.String())
	case models.StatusPaused, models.StatusCancelled:
		return styles.warn.Render(m.status.String())
	case models.StatusFailed:
		return styles.err.Render(m.status.String())
	default:
		return m.status.String()
	}
}

func (m *Model) renderResult() string {
	if m.runErr != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress esc to go back, q to quit", m.runErr))
	}

	state := m.selected
	if state == nil {
		return styles.err.Render("No task selected\n\nPress esc to go back, q to quit")
	}

	var title string
	switch state.Status {
	case models.StatusCompleted:
		title = styles.ok.Render("✓ Task Complete")
	case models.StatusCancelled:
		title = styles.warn.Render("Task Cancelled")
	default:
		title = styles.warn.Render(fmt.Sprintf("Task %s", state.Status))
	}

	info := fmt.Sprintf(
		"\nTask: %s\nType: %s\nProcessed: %d/%d",
		state.TaskID, state.TaskType, state.ProcessedCount(), state.TotalItems,
	)
	if m.finished != "" {
		info = fmt.Sprintf("%s\n%s", info, m.finished)
	}

	var failed string
	if len(state.FailedPaths) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.err.Render(fmt.Sprintf("%d of %d failed:", len(state.FailedPaths), state.TotalItems)))

		paths := make([]string, 0, len(state.FailedPaths))
		for path := range state.FailedPaths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			failed += fmt.Sprintf("\n  • %s: %s", filepath.Base(path), state.FailedPaths[path])
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}
