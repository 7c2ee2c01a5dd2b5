package library

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/trax/internal/analysis"
	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/models"
	"github.com/desertthunder/trax/internal/shared"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities. They are
// NOT exposed in CLI output but used internally for sorting and debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

const trackColumns = "id, sequence, path, title, artist, album, duration, bpm, musical_key, energy, mood, genre, loudness_lufs, gain_db, created_at, updated_at, deleted_at"

// TrackRepository implements models.Repository[*models.LibraryTrack] for the track catalog.
//
// Rows are soft-deleted via deleted_at and excluded from queries by default.
// Analysis fields are written either through Update or in bulk through
// [TrackRepository.ApplyResults].
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.LibraryTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.LibraryTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, path, title, artist, album, duration, bpm, musical_key, energy, mood, genre, loudness_lufs, gain_db, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Path(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.BPM(),
		track.Key(),
		track.Energy(),
		track.Mood(),
		track.Genre(),
		track.LoudnessLUFS(),
		track.GainDB(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.LibraryTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks WHERE id = ? AND deleted_at IS NULL", trackColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPath retrieves a track by its file path, excluding soft-deleted tracks
func (r *TrackRepository) GetByPath(path string) (*models.LibraryTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks WHERE path = ? AND deleted_at IS NULL", trackColumns)

	return r.scanOne(r.db.QueryRow(query, path))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.LibraryTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, bpm = ?, musical_key = ?,
			energy = ?, mood = ?, genre = ?, loudness_lufs = ?, gain_db = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.BPM(),
		track.Key(),
		track.Energy(),
		track.Mood(),
		track.Genre(),
		track.LoudnessLUFS(),
		track.GainDB(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
func (r *TrackRepository) List(criteria map[string]any) ([]*models.LibraryTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks WHERE deleted_at IS NULL", trackColumns)

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if missing, ok := criteria["missing"].(string); ok && missing != "" {
		column, err := analysisColumn(missing)
		if err != nil {
			return nil, err
		}

		query += fmt.Sprintf(" AND (%s = '' OR %s = 0)", column, column)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.LibraryTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// analysisColumn maps a user-facing analysis name onto its column. The
// explicit table keeps List free of SQL injection through criteria values.
func analysisColumn(name string) (string, error) {
	switch name {
	case "energy":
		return "energy", nil
	case "mood":
		return "mood", nil
	case "genre":
		return "genre", nil
	case "key":
		return "musical_key", nil
	case "loudness":
		return "loudness_lufs", nil
	default:
		return "", fmt.Errorf("%w: unknown analysis field %q", shared.ErrInvalidArgument, name)
	}
}

// ApplyResults folds batch-run result records into their track rows inside
// one transaction. Records for paths outside the catalog update nothing and
// are not an error; the returned count is the number of rows actually
// changed. A malformed record value aborts the whole transaction.
func (r *TrackRepository) ApplyResults(records []*models.ResultRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	now := time.Now()

	for _, record := range records {
		if record == nil || record.Error != "" {
			continue
		}

		changed, err := applyResult(tx, record, now)
		if err != nil {
			return 0, err
		}

		applied += changed
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit result batch: %w", err)
	}

	return applied, nil
}

func applyResult(tx *sql.Tx, record *models.ResultRecord, now time.Time) (int, error) {
	var result sql.Result
	var err error

	switch {
	case record.Kind == cache.KindEnergy:
		var level int
		if level, err = strconv.Atoi(record.Value); err != nil {
			return 0, fmt.Errorf("malformed energy value %q for %s: %w", record.Value, record.Path, err)
		}

		result, err = tx.Exec(
			"UPDATE tracks SET energy = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
			level, now, record.Path)

	case strings.HasPrefix(record.Kind, cache.MoodKindPrefix):
		result, err = tx.Exec(
			"UPDATE tracks SET mood = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
			record.Value, now, record.Path)

	case record.Kind == cache.KindGenre:
		result, err = tx.Exec(
			"UPDATE tracks SET genre = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
			record.Value, now, record.Path)

	case record.Kind == cache.KindMIK:
		var value analysis.MIKValue
		if value, err = analysis.ParseMIKValue(record.Value); err != nil {
			return 0, fmt.Errorf("malformed mik value for %s: %w", record.Path, err)
		}

		if value.Energy > 0 {
			result, err = tx.Exec(
				"UPDATE tracks SET musical_key = ?, energy = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
				value.Key, value.Energy, now, record.Path)
		} else {
			result, err = tx.Exec(
				"UPDATE tracks SET musical_key = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
				value.Key, now, record.Path)
		}

	case record.Kind == cache.KindLoudness:
		var lufs float64
		if lufs, err = strconv.ParseFloat(record.Value, 64); err != nil {
			return 0, fmt.Errorf("malformed loudness value %q for %s: %w", record.Value, record.Path, err)
		}

		result, err = tx.Exec(
			"UPDATE tracks SET loudness_lufs = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
			lufs, now, record.Path)

	case record.Kind == analysis.KindNormalize:
		var gain float64
		if gain, err = strconv.ParseFloat(record.Value, 64); err != nil {
			return 0, fmt.Errorf("malformed gain value %q for %s: %w", record.Value, record.Path, err)
		}

		result, err = tx.Exec(
			"UPDATE tracks SET gain_db = ?, updated_at = ? WHERE path = ? AND deleted_at IS NULL",
			gain, now, record.Path)

	default:
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to apply %s result for %s: %w", record.Kind, record.Path, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// scanOne scans a single [sql.Row] into a [models.LibraryTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.LibraryTrack, error) {
	track, err := scanTrack(row.Scan)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return track, nil
}

// scanRow scans a row from [sql.Rows] into a [models.LibraryTrack]
func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.LibraryTrack, error) {
	track, err := scanTrack(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return track, nil
}

func scanTrack(scan func(...any) error) (*models.LibraryTrack, error) {
	var (
		id         string
		sequence   int
		path       string
		title      string
		artist     string
		album      string
		duration   int
		bpm        float64
		musicalKey string
		energy     int
		mood       string
		genre      string
		loudness   float64
		gain       float64
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := scan(&id, &sequence, &path, &title, &artist, &album, &duration, &bpm, &musicalKey,
		&energy, &mood, &genre, &loudness, &gain, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	dto := models.Track{
		Path:     path,
		Title:    title,
		Artist:   artist,
		Album:    album,
		Duration: duration,
		BPM:      bpm,
		Key:      musicalKey,
	}

	track := models.NewLibraryTrack(sequence, dto)
	track.SetID(id)
	track.SetEnergy(energy)
	track.SetMood(mood)
	track.SetGenre(genre)
	track.SetLoudness(loudness)
	track.SetGain(gain)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}
