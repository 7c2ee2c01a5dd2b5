package models

import (
	"fmt"
	"time"
)

// Track is the scanner's view of one audio file: its path plus whatever
// tags could be read without decoding audio.
type Track struct {
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration int     `json:"duration"` // seconds
	BPM      float64 `json:"bpm,omitempty"`
	Key      string  `json:"key,omitempty"`
}

// LibraryTrack is a catalogued audio file with its analysis results.
//
// Analysis fields start at their zero values and are filled in by the
// result applier as jobs complete: Energy 1-10 (0 = unanalyzed), Mood and
// Genre as comma-joined tag strings, LoudnessLUFS as the measured
// integrated loudness (0 = unmeasured), GainDB as the adjustment needed
// to hit the configured target.
type LibraryTrack struct {
	id       string
	sequence int

	track Track

	energy       int
	mood         string
	genre        string
	loudnessLUFS float64
	gainDB       float64

	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewLibraryTrack wraps a scanned [Track] into a persistable entity.
func NewLibraryTrack(sequence int, track Track) *LibraryTrack {
	now := time.Now()
	return &LibraryTrack{
		sequence:  sequence,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *LibraryTrack) ID() string            { return t.id }
func (t *LibraryTrack) Sequence() int         { return t.sequence }
func (t *LibraryTrack) Path() string          { return t.track.Path }
func (t *LibraryTrack) Title() string         { return t.track.Title }
func (t *LibraryTrack) Artist() string        { return t.track.Artist }
func (t *LibraryTrack) Album() string         { return t.track.Album }
func (t *LibraryTrack) Duration() int         { return t.track.Duration }
func (t *LibraryTrack) BPM() float64          { return t.track.BPM }
func (t *LibraryTrack) Key() string           { return t.track.Key }
func (t *LibraryTrack) Energy() int           { return t.energy }
func (t *LibraryTrack) Mood() string          { return t.mood }
func (t *LibraryTrack) Genre() string         { return t.genre }
func (t *LibraryTrack) LoudnessLUFS() float64 { return t.loudnessLUFS }
func (t *LibraryTrack) GainDB() float64       { return t.gainDB }
func (t *LibraryTrack) CreatedAt() time.Time  { return t.createdAt }
func (t *LibraryTrack) UpdatedAt() time.Time  { return t.updatedAt }
func (t *LibraryTrack) DeletedAt() *time.Time { return t.deletedAt }

// DTO returns the track's scanner-level fields.
func (t *LibraryTrack) DTO() Track { return t.track }

func (t *LibraryTrack) SetID(id string)            { t.id = id }
func (t *LibraryTrack) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *LibraryTrack) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *LibraryTrack) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

func (t *LibraryTrack) SetTags(title, artist, album string, duration int) {
	t.track.Title = title
	t.track.Artist = artist
	t.track.Album = album
	t.track.Duration = duration
}

func (t *LibraryTrack) SetBPM(bpm float64)      { t.track.BPM = bpm }
func (t *LibraryTrack) SetKey(key string)       { t.track.Key = key }
func (t *LibraryTrack) SetEnergy(level int)     { t.energy = level }
func (t *LibraryTrack) SetMood(mood string)     { t.mood = mood }
func (t *LibraryTrack) SetGenre(genre string)   { t.genre = genre }
func (t *LibraryTrack) SetLoudness(db float64)  { t.loudnessLUFS = db }
func (t *LibraryTrack) SetGain(db float64)      { t.gainDB = db }

// Validate checks the entity's data before persistence.
func (t *LibraryTrack) Validate() error {
	if t.track.Path == "" {
		return fmt.Errorf("track path is required")
	}
	if t.track.Duration < 0 {
		return fmt.Errorf("track duration must not be negative")
	}
	if t.energy < 0 || t.energy > 10 {
		return fmt.Errorf("energy must be between 1 and 10, got %d", t.energy)
	}
	return nil
}
