// Package ui implements an interactive terminal task monitor using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for supervising batch jobs:
//  1. [TaskListView] : Browse task checkpoints and pick one to resume or inspect
//  2. [ProgressView] : Monitor a live run with pause, resume, and cancel keys
//  3. [ResultView] : Display the outcome summary and per-item failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Events flow through a channel from the [tasks.BatchEngine], providing non-blocking
// status reporting while a task runs; the engine itself is constructed lazily by an
// [EngineLauncher] so the monitor stays decoupled from processor wiring.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p/r/c, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
