// Package library implements the SQLite track catalog and the pieces that
// feed it.
//
// Key Implementations:
//   - [TrackRepository] : CRUD persistence for [models.LibraryTrack] with
//     soft deletes and path-based lookups
//   - [Scanner] : directory walker that probes audio files and upserts them
//     into the catalog
//   - [Applier] : the single goroutine that folds batch-run results back
//     into track rows, one transaction per checkpointed batch
//
// Sequence numbers provide stable, human-readable ordering (e.g., track #42)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence
// tables.
//
// Analysis results reach the catalog exclusively through [Applier]. Worker
// goroutines emit result events and never touch track rows themselves, so
// concurrent jobs over one library cannot interleave partial writes.
package library
