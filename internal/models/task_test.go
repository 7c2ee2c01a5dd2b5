package models

import (
	"encoding/json"
	"testing"
)

func TestTaskTypeValid(t *testing.T) {
	for _, taskType := range TaskTypes {
		if !taskType.Valid() {
			t.Errorf("expected %s to be valid", taskType)
		}
	}

	if TaskType("reticulate_splines").Valid() {
		t.Error("expected unknown type to be invalid")
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    TaskStatus
		to      TaskStatus
		allowed bool
	}{
		{"Pending To Running", StatusPending, StatusRunning, true},
		{"Pending To Completed", StatusPending, StatusCompleted, false},
		{"Pending To Paused", StatusPending, StatusPaused, false},
		{"Running To Paused", StatusRunning, StatusPaused, true},
		{"Running To Completed", StatusRunning, StatusCompleted, true},
		{"Running To Cancelled", StatusRunning, StatusCancelled, true},
		{"Running To Failed", StatusRunning, StatusFailed, true},
		{"Running To Pending", StatusRunning, StatusPending, false},
		{"Paused To Running", StatusPaused, StatusRunning, true},
		{"Paused To Cancelled", StatusPaused, StatusCancelled, true},
		{"Paused To Completed", StatusPaused, StatusCompleted, false},
		{"Completed Is Terminal", StatusCompleted, StatusRunning, false},
		{"Cancelled Is Terminal", StatusCancelled, StatusRunning, false},
		{"Failed Is Terminal", StatusFailed, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}

	t.Run("Transition Mutates Or Rejects", func(t *testing.T) {
		state := NewTaskState("t1", TaskMeasure, []string{"/a.mp3"}, TaskConfig{})

		if err := state.Transition(StatusRunning); err != nil {
			t.Fatalf("legal transition failed: %v", err)
		}
		if state.Status != StatusRunning {
			t.Errorf("expected running, got %s", state.Status)
		}

		if err := state.Transition(StatusPending); err == nil {
			t.Error("expected illegal transition to fail")
		}
		if state.Status != StatusRunning {
			t.Errorf("failed transition must not change status, got %s", state.Status)
		}
	})
}

func TestTaskConfigValidateFor(t *testing.T) {
	tests := []struct {
		name     string
		taskType TaskType
		config   TaskConfig
		wantErr  bool
	}{
		{"Zero Config", TaskAnalyzeEnergy, TaskConfig{}, false},
		{"Unknown Type", TaskType("bogus"), TaskConfig{}, true},
		{"Negative Batch", TaskMeasure, TaskConfig{BatchSize: -1}, true},
		{"Mood Model On Mood Task", TaskAnalyzeMood, TaskConfig{MoodModel: "heuristic"}, false},
		{"Mood Model On Energy Task", TaskAnalyzeEnergy, TaskConfig{MoodModel: "heuristic"}, true},
		{"Unknown Mood Model", TaskAnalyzeMood, TaskConfig{MoodModel: "vibes-9000"}, true},
		{"LUFS On Normalize", TaskNormalize, TaskConfig{TargetLUFS: -14.0}, false},
		{"Positive LUFS", TaskNormalize, TaskConfig{TargetLUFS: 3.0}, true},
		{"LUFS On Measure", TaskMeasure, TaskConfig{TargetLUFS: -14.0}, true},
		{"Online On Genre Task", TaskAnalyzeGenre, TaskConfig{OnlineLookup: true}, false},
		{"Online On Mood Task", TaskAnalyzeMood, TaskConfig{OnlineLookup: true}, false},
		{"Online On Measure Task", TaskMeasure, TaskConfig{OnlineLookup: true}, true},
		{"Backup On Normalize", TaskNormalize, TaskConfig{Backup: true}, false},
		{"Backup On Energy Task", TaskAnalyzeEnergy, TaskConfig{Backup: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.ValidateFor(tt.taskType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFor(%s) error = %v, wantErr %v", tt.taskType, err, tt.wantErr)
			}
		})
	}
}

func TestTaskStateBookkeeping(t *testing.T) {
	paths := []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3"}
	state := NewTaskState("t1", TaskAnalyzeEnergy, paths, TaskConfig{})

	if state.Status != StatusPending {
		t.Errorf("expected pending, got %s", state.Status)
	}
	if state.TotalItems != 3 || len(state.PendingPaths) != 3 {
		t.Errorf("unexpected initial counts: total=%d pending=%d", state.TotalItems, len(state.PendingPaths))
	}
	if state.ProgressPercent() != 0 {
		t.Errorf("expected zero progress, got %.2f", state.ProgressPercent())
	}

	t.Run("MarkCompleted", func(t *testing.T) {
		state.MarkCompleted("/music/a.mp3", &ResultRecord{Path: "/music/a.mp3", Kind: "energy", Value: "7"})

		if len(state.PendingPaths) != 2 {
			t.Errorf("expected path removed from pending, got %v", state.PendingPaths)
		}
		if len(state.CompletedPaths) != 1 {
			t.Errorf("expected one completion, got %v", state.CompletedPaths)
		}
		if len(state.Results) != 1 {
			t.Errorf("expected one result record, got %d", len(state.Results))
		}
	})

	t.Run("MarkCompleted Twice Deduplicates", func(t *testing.T) {
		state.MarkCompleted("/music/a.mp3", &ResultRecord{Path: "/music/a.mp3", Kind: "energy", Value: "7"})

		if len(state.CompletedPaths) != 1 {
			t.Errorf("expected deduplicated completions, got %v", state.CompletedPaths)
		}
	})

	t.Run("MarkFailed", func(t *testing.T) {
		state.MarkFailed("/music/b.mp3", "decode error")

		if state.FailedPaths["/music/b.mp3"] != "decode error" {
			t.Errorf("expected failure recorded, got %v", state.FailedPaths)
		}
		if len(state.PendingPaths) != 1 {
			t.Errorf("expected path removed from pending, got %v", state.PendingPaths)
		}
		if len(state.Results) != 1 {
			t.Errorf("failures must not append results, got %d", len(state.Results))
		}
	})

	t.Run("Progress Counts Failures", func(t *testing.T) {
		if state.ProcessedCount() != 2 {
			t.Errorf("expected 2 processed, got %d", state.ProcessedCount())
		}
		if pct := state.ProgressPercent(); pct < 66.6 || pct > 66.7 {
			t.Errorf("expected two thirds progress, got %.2f", pct)
		}
	})

	t.Run("Empty Task Progress", func(t *testing.T) {
		empty := NewTaskState("t2", TaskMeasure, nil, TaskConfig{})
		if empty.ProgressPercent() != 0 {
			t.Errorf("expected zero progress on empty task, got %.2f", empty.ProgressPercent())
		}
	})
}

func TestTaskStateResumable(t *testing.T) {
	tests := []struct {
		name      string
		status    TaskStatus
		pending   []string
		resumable bool
	}{
		{"Paused With Pending", StatusPaused, []string{"/a.mp3"}, true},
		{"Running With Pending", StatusRunning, []string{"/a.mp3"}, true},
		{"Pending Status", StatusPending, []string{"/a.mp3"}, false},
		{"Paused Drained", StatusPaused, nil, false},
		{"Completed", StatusCompleted, nil, false},
		{"Cancelled With Pending", StatusCancelled, []string{"/a.mp3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewTaskState("t1", TaskAnalyzeMood, []string{"/a.mp3"}, TaskConfig{})
			state.Status = tt.status
			state.PendingPaths = tt.pending

			if got := state.IsResumable(); got != tt.resumable {
				t.Errorf("IsResumable() = %v, want %v", got, tt.resumable)
			}
		})
	}
}

func TestTaskStateJSONRoundTrip(t *testing.T) {
	state := NewTaskState("analyze_mood_20260825_120000_a1b2c3d4", TaskAnalyzeMood,
		[]string{"/music/a.mp3", "/music/b.mp3"},
		TaskConfig{BatchSize: 25, MoodModel: "mtg-jamendo"})
	state.Status = StatusPaused
	state.MarkCompleted("/music/a.mp3", &ResultRecord{Path: "/music/a.mp3", Kind: "mood:mtg-jamendo", Value: "happy,relaxed"})
	state.MarkFailed("/music/b.mp3", "decode error")

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored TaskState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if restored.TaskID != state.TaskID || restored.TaskType != state.TaskType || restored.Status != state.Status {
		t.Errorf("identity fields did not survive: %+v", restored)
	}
	if restored.Config.BatchSize != 25 || restored.Config.MoodModel != "mtg-jamendo" {
		t.Errorf("config did not survive: %+v", restored.Config)
	}
	if len(restored.CompletedPaths) != 1 || len(restored.PendingPaths) != 0 {
		t.Errorf("path lists did not survive: %+v", restored)
	}
	if restored.FailedPaths["/music/b.mp3"] != "decode error" {
		t.Errorf("failures did not survive: %+v", restored.FailedPaths)
	}
	if len(restored.Results) != 1 || restored.Results[0].Value != "happy,relaxed" {
		t.Errorf("results did not survive: %+v", restored.Results)
	}
	if !restored.Created.Equal(state.Created) {
		t.Errorf("timestamps did not survive: %v vs %v", restored.Created, state.Created)
	}
}
