// Package checkpoints persists task state snapshots as one JSON file per
// task under a checkpoint directory (by default ~/.trax/checkpoints).
//
// Snapshots are written with a temp-file-then-rename sequence so a crash
// mid-write leaves the previous snapshot intact rather than a truncated
// file. Files that cannot be parsed are logged and skipped, never fatal;
// losing a checkpoint only costs re-processing, not library data.
package checkpoints
