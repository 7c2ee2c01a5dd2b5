package cache

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Result kinds understood by the built-in analyzers. Mood results carry the
// model name as a suffix so different models never collide.
const (
	KindEnergy   = "energy"
	KindGenre    = "genre"
	KindMIK      = "mik"
	KindLoudness = "loudness"

	// MoodKindPrefix groups every mood model's results under one family.
	MoodKindPrefix = "mood:"

	legacyMoodKind  = "mood"
	defaultMoodKind = "mood:mtg-jamendo"
)

// batchChunkSize bounds the number of bound parameters per bulk lookup.
// SQLite's default variable limit is 999.
const batchChunkSize = 500

// MoodKind returns the cache kind for a mood model, e.g. "mood:heuristic".
func MoodKind(model string) string {
	return MoodKindPrefix + model
}

// fingerprint identifies a file's content cheaply by size and mtime.
type fingerprint struct {
	size    int64
	mtimeNS int64
}

func stat(path string) (fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}

	return fingerprint{size: info.Size(), mtimeNS: info.ModTime().UnixNano()}, nil
}

// Stats summarizes cache contents for operator commands.
type Stats struct {
	Entries      int64            `json:"entries"`
	StorageBytes int64            `json:"storage_bytes"`
	ByKind       map[string]int64 `json:"by_kind"`
}

// AnalysisCache stores analysis results in the analysis_cache table of the
// database it is handed. It does not own the connection.
//
// Get, GetBatch, and Put absorb their own failures and behave as misses or
// no-ops so a degraded cache can never stop a batch run.
type AnalysisCache struct {
	db     *sql.DB
	logger *log.Logger
}

// New wraps db and renames any rows left by the unversioned "mood" kind to
// "mood:mtg-jamendo". The rename is idempotent and safe to run on every
// startup.
func New(db *sql.DB, logger *log.Logger) (*AnalysisCache, error) {
	if logger == nil {
		logger = log.Default()
	}

	c := &AnalysisCache{db: db, logger: logger}
	if err := c.migrateLegacyKinds(); err != nil {
		return nil, fmt.Errorf("cache: legacy kind migration failed: %w", err)
	}

	return c, nil
}

// migrateLegacyKinds rewrites "mood" rows to the default model kind. Rows
// that would collide with an existing "mood:mtg-jamendo" entry are dropped,
// keeping the newer, already-qualified value.
func (c *AnalysisCache) migrateLegacyKinds() error {
	result, err := c.db.Exec(
		"UPDATE OR IGNORE analysis_cache SET kind = ? WHERE kind = ?",
		defaultMoodKind, legacyMoodKind,
	)
	if err != nil {
		return err
	}

	if _, err := c.db.Exec("DELETE FROM analysis_cache WHERE kind = ?", legacyMoodKind); err != nil {
		return err
	}

	if renamed, _ := result.RowsAffected(); renamed > 0 {
		c.logger.Info("renamed legacy mood cache entries", "count", renamed, "kind", defaultMoodKind)
	}

	return nil
}

// Get returns the cached value for (path, kind) when the file still matches
// the fingerprint recorded at write time. Any failure, including the file
// being gone, reads as a miss.
func (c *AnalysisCache) Get(path, kind string) (string, bool) {
	fp, err := stat(path)
	if err != nil {
		return "", false
	}

	var (
		value   string
		size    int64
		mtimeNS int64
	)

	row := c.db.QueryRow(
		"SELECT value, size, mtime_ns FROM analysis_cache WHERE path = ? AND kind = ?",
		path, kind,
	)
	if err := row.Scan(&value, &size, &mtimeNS); err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("cache read failed", "path", path, "kind", kind, "error", err)
		}

		return "", false
	}

	if size != fp.size || mtimeNS != fp.mtimeNS {
		return "", false
	}

	return value, true
}

// Put stores value for (path, kind) with the file's current fingerprint,
// overwriting any previous entry. When the file cannot be stat'd there is no
// fingerprint to record, so the write is skipped.
func (c *AnalysisCache) Put(path, kind, value string) {
	fp, err := stat(path)
	if err != nil {
		c.logger.Debug("skipping cache write for unreadable file", "path", path, "error", err)
		return
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO analysis_cache (path, kind, size, mtime_ns, value, written_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		path, kind, fp.size, fp.mtimeNS, value, time.Now().UTC(),
	)
	if err != nil {
		c.logger.Warn("cache write failed", "path", path, "kind", kind, "error", err)
	}
}

// GetBatch looks up one kind for many paths at once and returns only the
// fresh hits. Rows whose fingerprint no longer matches the file on disk are
// omitted. The lookup runs as chunked IN queries rather than per-path reads.
func (c *AnalysisCache) GetBatch(paths []string, kind string) map[string]string {
	hits := make(map[string]string, len(paths))

	for start := 0; start < len(paths); start += batchChunkSize {
		end := min(start+batchChunkSize, len(paths))
		c.getChunk(paths[start:end], kind, hits)
	}

	return hits
}

func (c *AnalysisCache) getChunk(paths []string, kind string, hits map[string]string) {
	if len(paths) == 0 {
		return
	}

	placeholders := strings.Repeat("?,", len(paths))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(paths)+1)
	for _, p := range paths {
		args = append(args, p)
	}
	args = append(args, kind)

	query := fmt.Sprintf(
		"SELECT path, value, size, mtime_ns FROM analysis_cache WHERE path IN (%s) AND kind = ?",
		placeholders,
	)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		c.logger.Warn("cache batch read failed", "kind", kind, "paths", len(paths), "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path    string
			value   string
			size    int64
			mtimeNS int64
		)

		if err := rows.Scan(&path, &value, &size, &mtimeNS); err != nil {
			c.logger.Warn("cache batch scan failed", "kind", kind, "error", err)
			return
		}

		fp, err := stat(path)
		if err != nil || fp.size != size || fp.mtimeNS != mtimeNS {
			continue
		}

		hits[path] = value
	}

	if err := rows.Err(); err != nil {
		c.logger.Warn("cache batch read failed", "kind", kind, "error", err)
	}
}

// Invalidate removes every cached kind for a path. Returns the number of
// rows removed.
func (c *AnalysisCache) Invalidate(path string) (int64, error) {
	result, err := c.db.Exec("DELETE FROM analysis_cache WHERE path = ?", path)
	if err != nil {
		return 0, fmt.Errorf("cache: invalidate %s: %w", path, err)
	}

	return result.RowsAffected()
}

// InvalidateKind removes a single (path, kind) entry.
func (c *AnalysisCache) InvalidateKind(path, kind string) error {
	if _, err := c.db.Exec("DELETE FROM analysis_cache WHERE path = ? AND kind = ?", path, kind); err != nil {
		return fmt.Errorf("cache: invalidate %s %s: %w", kind, path, err)
	}

	return nil
}

// InvalidateByKind removes every entry of one exact kind across all paths.
func (c *AnalysisCache) InvalidateByKind(kind string) (int64, error) {
	result, err := c.db.Exec("DELETE FROM analysis_cache WHERE kind = ?", kind)
	if err != nil {
		return 0, fmt.Errorf("cache: invalidate kind %s: %w", kind, err)
	}

	return result.RowsAffected()
}

// InvalidateByKindPrefix removes every entry whose kind starts with prefix,
// e.g. "mood:" to retire all mood models at once.
func (c *AnalysisCache) InvalidateByKindPrefix(prefix string) (int64, error) {
	pattern := escapeLike(prefix) + "%"

	result, err := c.db.Exec(`DELETE FROM analysis_cache WHERE kind LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalidate kind prefix %s: %w", prefix, err)
	}

	return result.RowsAffected()
}

// Clear empties the cache.
func (c *AnalysisCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM analysis_cache"); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}

	return nil
}

// Stats reports entry counts per kind and the database's on-disk footprint.
func (c *AnalysisCache) Stats() (Stats, error) {
	stats := Stats{ByKind: make(map[string]int64)}

	rows, err := c.db.Query("SELECT kind, COUNT(*) FROM analysis_cache GROUP BY kind ORDER BY kind")
	if err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int64
		)

		if err := rows.Scan(&kind, &count); err != nil {
			return Stats{}, fmt.Errorf("cache: stats: %w", err)
		}

		stats.ByKind[kind] = count
		stats.Entries += count
	}

	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}

	var pageCount, pageSize int64
	if err := c.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := c.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.StorageBytes = pageCount * pageSize
		}
	}

	return stats, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)

	return s
}
