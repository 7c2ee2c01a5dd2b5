package checkpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// DefaultDir returns the per-user checkpoint directory, ~/.trax/checkpoints.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, ".trax", "checkpoints"), nil
}

// Store reads and writes task snapshots in a single directory.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates the checkpoint directory if needed and returns a store
// over it. An empty dir selects [DefaultDir].
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", dir, err)
	}

	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory this store persists into.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

// CreateTask validates config against the task type, assigns a fresh task id,
// and persists the initial pending snapshot. Task ids embed the type and a
// timestamp, e.g. "analyze_energy_20260825_143012_a1b2c3d4", so directory
// listings read chronologically per type.
func (s *Store) CreateTask(taskType models.TaskType, paths []string, config models.TaskConfig) (*models.TaskState, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: task requires at least one path", shared.ErrInvalidInput)
	}

	if err := config.ValidateFor(taskType); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%s_%s_%s", taskType, time.Now().Format("20060102_150405"), shared.ShortID())
	state := models.NewTaskState(id, taskType, paths, config)

	if err := s.Save(state, false); err != nil {
		return nil, err
	}

	return state, nil
}

// Save writes state's snapshot atomically: the JSON lands in a temp file in
// the same directory and is renamed over the previous snapshot. With touch
// set, the state's updated timestamp is refreshed first.
func (s *Store) Save(state *models.TaskState, touch bool) error {
	if touch {
		state.Touch()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", state.TaskID, err)
	}

	tmp, err := os.CreateTemp(s.dir, state.TaskID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write checkpoint %s: %w", state.TaskID, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write checkpoint %s: %w", state.TaskID, err)
	}

	if err := os.Rename(tmp.Name(), s.path(state.TaskID)); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace checkpoint %s: %w", state.TaskID, err)
	}

	return nil
}

// Load reads one task's snapshot. A missing file maps to ErrTaskNotFound and
// an unparseable one to ErrCheckpointCorrupt.
func (s *Store) Load(taskID string) (*models.TaskState, error) {
	state, err := s.loadFile(s.path(taskID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, taskID)
		}

		return nil, err
	}

	return state, nil
}

func (s *Store) loadFile(path string) (*models.TaskState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state models.TaskState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCheckpointCorrupt, filepath.Base(path), err)
	}

	if state.TaskID == "" {
		return nil, fmt.Errorf("%w: %s: missing task id", shared.ErrCheckpointCorrupt, filepath.Base(path))
	}

	return &state, nil
}

// Delete removes a task's snapshot and reports whether one existed.
func (s *Store) Delete(taskID string) bool {
	return os.Remove(s.path(taskID)) == nil
}

// Iterate yields every readable snapshot in the store, in directory order.
// Corrupt or unreadable files are logged and skipped.
func (s *Store) Iterate() iter.Seq[*models.TaskState] {
	return func(yield func(*models.TaskState) bool) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			s.logger.Warn("failed to read checkpoint directory", "dir", s.dir, "error", err)
			return
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}

			state, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
			if err != nil {
				s.logger.Warn("skipping unreadable checkpoint", "file", entry.Name(), "error", err)
				continue
			}

			if !yield(state) {
				return
			}
		}
	}
}

// List returns every readable snapshot, most recently updated first.
func (s *Store) List() []*models.TaskState {
	var states []*models.TaskState
	for state := range s.Iterate() {
		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].Updated.Equal(states[j].Updated) {
			return states[i].TaskID < states[j].TaskID
		}

		return states[i].Updated.After(states[j].Updated)
	})

	return states
}

// ListResumable returns snapshots that still have pending work and sit in a
// status resumption accepts. A running snapshot here means the process died
// mid-task; its checkpoint is exactly what resumption exists for.
func (s *Store) ListResumable() []*models.TaskState {
	var resumable []*models.TaskState
	for _, state := range s.List() {
		if state.IsResumable() {
			resumable = append(resumable, state)
		}
	}

	return resumable
}

// ListIncomplete returns snapshots whose status is not terminal.
func (s *Store) ListIncomplete() []*models.TaskState {
	var incomplete []*models.TaskState
	for _, state := range s.List() {
		if !state.IsComplete() {
			incomplete = append(incomplete, state)
		}
	}

	return incomplete
}

// CleanupCompleted deletes snapshots of finished tasks whose last update is
// older than maxAgeDays. Paused and otherwise unfinished tasks are kept no
// matter their age. Returns the number of snapshots removed.
func (s *Store) CleanupCompleted(maxAgeDays int) int {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	removed := 0
	for state := range s.Iterate() {
		if !state.IsComplete() || !state.Updated.Before(cutoff) {
			continue
		}

		if s.Delete(state.TaskID) {
			s.logger.Debug("removed old checkpoint", "task", state.TaskID, "status", state.Status)
			removed++
		}
	}

	return removed
}
