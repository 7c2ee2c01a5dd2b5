// Package cache implements the fingerprint-keyed analysis result cache.
//
// Every cached value is stored against a (path, kind) pair together with the
// subject file's size and mtime at write time. A later read only hits when
// the file's current fingerprint still matches, so edited, re-encoded, or
// replaced files silently fall back to re-analysis. Stale rows are left in
// place until overwritten or explicitly invalidated.
//
// Result kinds are plain strings with an optional "family:variant" shape
// (e.g. "mood:mtg-jamendo"), which lets [AnalysisCache.InvalidateByKindPrefix]
// retire a whole family in one call.
//
// The cache never surfaces its own failures to analyzers: a broken cache
// degrades to "always recompute", a miss, not an error.
package cache
