package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskType identifies one kind of long-running batch job.
type TaskType string

const (
	TaskNormalize     TaskType = "normalize"
	TaskMeasure       TaskType = "measure"
	TaskAnalyzeEnergy TaskType = "analyze_energy"
	TaskAnalyzeMood   TaskType = "analyze_mood"
	TaskAnalyzeGenre  TaskType = "analyze_genre"
	TaskImportMIK     TaskType = "import_mik"
)

// TaskTypes lists every valid task type.
var TaskTypes = []TaskType{
	TaskNormalize, TaskMeasure, TaskAnalyzeEnergy, TaskAnalyzeMood, TaskAnalyzeGenre, TaskImportMIK,
}

// Valid reports whether t is a member of the closed task type set.
func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t TaskType) String() string { return string(t) }

// TaskStatus is the lifecycle state of a batch job.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusPaused    TaskStatus = "paused"
	StatusCompleted TaskStatus = "completed"
	StatusCancelled TaskStatus = "cancelled"
	StatusFailed    TaskStatus = "failed"
)

func (s TaskStatus) String() string { return string(s) }

// IsTerminal reports whether no further transitions are allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// transitions is the allowed edge set of the task status machine.
var transitions = map[TaskStatus][]TaskStatus{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusPaused, StatusCompleted, StatusCancelled, StatusFailed},
	StatusPaused:  {StatusRunning, StatusCancelled},
}

// CanTransition reports whether moving from s to next is a legal status change.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// ResultRecord is the generic per-item outcome the engine persists in
// checkpoints and emits to listeners. Value holds the analyzer's result
// rendered as a string (e.g. "7" for energy, "happy,relaxed" for moods,
// "-9.3" for LUFS); Error is set instead of Value when the item failed.
type ResultRecord struct {
	Path  string `json:"path"`
	Kind  string `json:"kind,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// TaskConfig carries the per-task parameters a job was created with.
// Zero values mean "use the default"; ValidateFor rejects combinations
// that make no sense for the task type before any work starts.
type TaskConfig struct {
	BatchSize    int     `json:"batch_size,omitempty"`
	MoodModel    string  `json:"mood_model,omitempty"`
	TargetLUFS   float64 `json:"target_lufs,omitempty"`
	Overwrite    bool    `json:"overwrite,omitempty"`
	OnlineLookup bool    `json:"online_lookup,omitempty"`
	Backup       bool    `json:"backup,omitempty"`
}

// MoodModels lists the mood analysis backends selectable via TaskConfig.
var MoodModels = []string{"mtg-jamendo", "heuristic"}

// ValidateFor checks the config against the rules for the given task type.
func (c TaskConfig) ValidateFor(t TaskType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown task type %q", t)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative, got %d", c.BatchSize)
	}
	if c.MoodModel != "" {
		if t != TaskAnalyzeMood {
			return fmt.Errorf("mood model is only valid for %s tasks", TaskAnalyzeMood)
		}
		known := false
		for _, m := range MoodModels {
			if c.MoodModel == m {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown mood model %q (expected one of %s)", c.MoodModel, strings.Join(MoodModels, ", "))
		}
	}
	if c.TargetLUFS != 0 {
		if t != TaskNormalize {
			return fmt.Errorf("target LUFS is only valid for %s tasks", TaskNormalize)
		}
		if c.TargetLUFS > 0 {
			return fmt.Errorf("target LUFS must be negative, got %.1f", c.TargetLUFS)
		}
	}
	if c.OnlineLookup && t != TaskAnalyzeGenre && t != TaskAnalyzeMood {
		return fmt.Errorf("online lookup is only valid for %s and %s tasks", TaskAnalyzeGenre, TaskAnalyzeMood)
	}
	if c.Backup && t != TaskNormalize {
		return fmt.Errorf("backup is only valid for %s tasks", TaskNormalize)
	}
	return nil
}

// TaskState is the full progress snapshot of one batch job.
//
// It tracks which subject paths are still pending, which completed, and
// which failed with what message, allowing a job to be paused and resumed
// across application restarts. A TaskState is owned by exactly one engine
// at a time; all mutation goes through that owner.
type TaskState struct {
	TaskID   string     `json:"task_id"`
	TaskType TaskType   `json:"task_type"`
	Status   TaskStatus `json:"status"`

	TotalItems     int               `json:"total_items"`
	CompletedPaths []string          `json:"completed_paths"`
	PendingPaths   []string          `json:"pending_paths"`
	FailedPaths    map[string]string `json:"failed_paths"`

	Config  TaskConfig     `json:"config"`
	Results []ResultRecord `json:"results"`

	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`
}

// NewTaskState builds a PENDING state over the given subject paths.
func NewTaskState(id string, taskType TaskType, paths []string, config TaskConfig) *TaskState {
	now := time.Now()
	return &TaskState{
		TaskID:         id,
		TaskType:       taskType,
		Status:         StatusPending,
		TotalItems:     len(paths),
		PendingPaths:   append([]string{}, paths...),
		CompletedPaths: []string{},
		FailedPaths:    map[string]string{},
		Config:         config,
		Results:        []ResultRecord{},
		Created:        now,
		Updated:        now,
	}
}

// ProcessedCount is the number of items already handled, successfully or not.
func (s *TaskState) ProcessedCount() int {
	return len(s.CompletedPaths) + len(s.FailedPaths)
}

// ProgressPercent is the share of items handled so far, 0-100.
// An empty task reports 0.
func (s *TaskState) ProgressPercent() float64 {
	if s.TotalItems == 0 {
		return 0.0
	}
	return float64(s.ProcessedCount()) / float64(s.TotalItems) * 100.0
}

// IsResumable reports whether the task can pick up where it left off.
// RUNNING counts as resumable because a crashed process leaves its last
// checkpoint in that status.
func (s *TaskState) IsResumable() bool {
	return (s.Status == StatusPaused || s.Status == StatusRunning) && len(s.PendingPaths) > 0
}

// IsComplete reports whether the task reached a terminal status.
func (s *TaskState) IsComplete() bool {
	return s.Status.IsTerminal()
}

// Transition moves the task to the next status, rejecting illegal edges.
func (s *TaskState) Transition(next TaskStatus) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("invalid status transition %s -> %s for task %s", s.Status, next, s.TaskID)
	}
	s.Status = next
	s.Touch()
	return nil
}

// MarkCompleted records a successful item: the path leaves the pending
// list, joins the completed list, and the result record (if any) is
// appended in processing order. Marking the same path twice leaves the
// completed list deduplicated.
func (s *TaskState) MarkCompleted(path string, record *ResultRecord) {
	s.removePending(path)
	for _, p := range s.CompletedPaths {
		if p == path {
			s.Touch()
			return
		}
	}
	s.CompletedPaths = append(s.CompletedPaths, path)
	if record != nil {
		s.Results = append(s.Results, *record)
	}
	s.Touch()
}

// MarkFailed records a failed item with its error message. The path
// leaves the pending list; failures do not contribute to Results.
func (s *TaskState) MarkFailed(path string, errMsg string) {
	s.removePending(path)
	if s.FailedPaths == nil {
		s.FailedPaths = map[string]string{}
	}
	s.FailedPaths[path] = errMsg
	s.Touch()
}

// Touch refreshes the updated_at timestamp.
func (s *TaskState) Touch() {
	s.Updated = time.Now()
}

func (s *TaskState) removePending(path string) {
	for i, p := range s.PendingPaths {
		if p == path {
			s.PendingPaths = append(s.PendingPaths[:i], s.PendingPaths[i+1:]...)
			return
		}
	}
}
