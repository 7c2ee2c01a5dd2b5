// Package models defines domain entities and persistence interfaces for the trax analysis toolkit.
//
// The package contains three categories of types:
//
// 1. Task types: serializable progress records for long-running batch jobs
//   - [TaskState] : one batch job's full progress snapshot, round-trippable through JSON checkpoints
//   - [TaskStatus] / [TaskType] : closed enumerations with an explicit transition table
//   - [TaskConfig] : typed per-task parameters, validated once at task creation
//   - [ResultRecord] : the generic per-item outcome shape persisted and emitted by the engine
//
// 2. Data Transfer Objects (DTOs): lightweight structs produced by library scanning
//   - [Track] : file path plus whatever tags the scanner could read
//
// 3. Persistent Entities: database-backed models with full lifecycle management
//   - [LibraryTrack] : a catalogued audio file carrying analysis results (energy, mood, genre, loudness)
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
