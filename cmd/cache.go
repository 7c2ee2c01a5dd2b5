package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/trax/internal/cache"
	"github.com/desertthunder/trax/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// CacheStats shows entry counts per kind and the cache's share of the
// database file.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheStore, err := cache.New(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open analysis cache: %w", err)
	}

	stats, err := cacheStore.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	if stats.Entries == 0 {
		return r.writePlain("Analysis cache is empty\n")
	}

	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"KIND", "ENTRIES"})
	for _, kind := range kinds {
		tbl.AppendRow(table.Row{kind, stats.ByKind[kind]})
	}
	tbl.AppendFooter(table.Row{"total", stats.Entries})

	r.writePlain("%s\n", tbl.Render())
	r.writePlain("Storage: %s\n", humanize.Bytes(uint64(stats.StorageBytes)))
	return nil
}

// CacheClear deletes every cache entry.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheStore, err := cache.New(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open analysis cache: %w", err)
	}

	if err := cacheStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("analysis cache cleared")
	r.writePlain("✓ Analysis cache cleared\n")
	return nil
}

// CacheInvalidate drops cache entries for a file, a kind, or a specific
// combination. "mood" and kinds ending in a colon invalidate a whole
// kind family.
func (r *Runner) CacheInvalidate(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	path := cmd.String("path")
	kind := cmd.String("kind")

	if path == "" && kind == "" {
		return fmt.Errorf("%w: either --path or --kind must be provided", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheStore, err := cache.New(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open analysis cache: %w", err)
	}

	switch {
	case path != "" && kind != "":
		if err := cacheStore.InvalidateKind(path, kind); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		r.writePlain("✓ Invalidated %s entry for %s\n", kind, path)

	case path != "":
		removed, err := cacheStore.Invalidate(path)
		if err != nil {
			return fmt.Errorf("failed to invalidate entries: %w", err)
		}
		r.writePlain("✓ Invalidated %d entries for %s\n", removed, path)

	default:
		var removed int64
		if kind == "mood" || strings.HasSuffix(kind, ":") {
			prefix := kind
			if prefix == "mood" {
				prefix = cache.MoodKindPrefix
			}
			removed, err = cacheStore.InvalidateByKindPrefix(prefix)
		} else {
			removed, err = cacheStore.InvalidateByKind(kind)
		}
		if err != nil {
			return fmt.Errorf("failed to invalidate entries: %w", err)
		}
		r.writePlain("✓ Invalidated %d entries of kind %s\n", removed, kind)
	}

	return nil
}
