// Package tasks runs resumable batch jobs over music files with real-time progress reporting.
//
// # Execution Model
//
// The [BatchEngine] drives one task at a time:
//
//  1. Paths are processed in their original order, split into fixed-size batches
//     - Batch size comes from the task config, falling back to [BatchSizeFor]
//     - A checkpoint is written after every batch via the checkpoints store
//  2. One [ItemProcessor] handles each path
//     - Failures are recorded per path and never stop the run
//     - Successful records accumulate in the task state and are emitted as events
//  3. Pause, resume, and cancel are cooperative
//     - Requests are observed at item boundaries, so the current item always finishes
//     - Pausing checkpoints immediately; cancelling is terminal and not resumable
//
// # Progress Reporting
//
// All runs emit [Event] values on a caller-supplied channel
//
// Sends use select with default so a slow listener drops events instead of
// stalling the run. The checkpoint file remains the source of truth; events
// are advisory.
//
// # Resumption
//
// A task interrupted by pause, crash, or process exit resumes from its last
// checkpoint: completed and failed paths stay settled, and only pending paths
// are processed again.
package tasks
