// Package migrate runs bulk sweeps over the object store: path migration
// from the legacy layout into the canonical one, and regeneration of the
// metadata index from canonical metadata blobs.
package migrate

import (
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/user/scribe/internal/blobstore"
	"github.com/user/scribe/internal/store"
)

// MaxInFlight is the number of object-store operations a sweep keeps
// outstanding. The dispatcher blocks on a semaphore permit before launching
// each item, so the bound holds at steady state rather than stalling in
// batches.
const MaxInFlight = 25

// Stats summarizes one sweep. Per-item failures are counted, not surfaced;
// a re-run is safe because destinations are existence-checked.
type Stats struct {
	Inspected int64 `json:"inspected"`
	Copied    int64 `json:"copied"`
	Skipped   int64 `json:"skipped"`
	Written   int64 `json:"written"`
	Failed    int64 `json:"failed"`
}

// Engine drives both sweep modes against one bucket and one store.
type Engine struct {
	bucket *blobstore.Bucket
	store  *store.Store
}

func NewEngine(bucket *blobstore.Bucket, s *store.Store) *Engine {
	return &Engine{bucket: bucket, store: s}
}

func legacyPrefix(category string) string {
	return "transcription/" + category
}

func canonicalMetadataPrefix(category string) string {
	return "transcripts/public/" + category + "/metadata/"
}

// classify maps a legacy blob basename to its destination kind and canonical
// suffix. The metadata case must be tested first since ".json" also matches
// it. Unknown suffixes get no destination and are left alone.
func classify(base string) (kind, suffix string, ok bool) {
	switch {
	case strings.HasSuffix(base, ".metadata.json"):
		return "metadata", "metadata.json", true
	case strings.HasSuffix(base, ".json"):
		return "json", "en.json", true
	case strings.HasSuffix(base, ".vtt"):
		return "vtt", "en.vtt", true
	case strings.HasSuffix(base, ".srt"):
		return "srt", "en.srt", true
	case strings.HasSuffix(base, ".txt"):
		return "txt", "en.txt", true
	case strings.HasSuffix(base, ".tsv"):
		return "tsv", "en.tsv", true
	}
	return "", "", false
}

func destKey(category, kind, videoID, suffix string) string {
	return "transcripts/public/" + category + "/" + kind + "/" + videoID + "." + suffix
}

// MigratePaths copies every classifiable blob under the legacy prefix to its
// canonical location, skipping destinations that already exist. limit, when
// positive, caps how many source items are inspected; the check runs at the
// top of the loop, so one extra item past the limit is still dispatched.
// Outstanding copies always drain before return.
func (e *Engine) MigratePaths(ctx context.Context, category string, limit int) (Stats, error) {
	keys, err := e.bucket.List(ctx, legacyPrefix(category))
	if err != nil {
		return Stats{}, store.NewInternalError("list legacy prefix", err)
	}
	slog.Info("path migration starting", "category", category, "files", len(keys))

	var (
		copied, skipped, failed atomic.Int64
		wg                      sync.WaitGroup
	)
	sem := make(chan struct{}, MaxInFlight)
	n := 0
	for _, key := range keys {
		if limit > 0 && n > limit {
			break
		}
		n++

		base := path.Base(key)
		videoID := strings.SplitN(base, ".", 2)[0]
		kind, suffix, ok := classify(base)
		if !ok {
			continue
		}
		dst := destKey(category, kind, videoID, suffix)

		sem <- struct{}{}
		wg.Add(1)
		go func(src, dst string) {
			defer wg.Done()
			defer func() { <-sem }()

			exists, err := e.bucket.Exists(ctx, dst)
			if err != nil {
				slog.Error("existence check failed", "dst", dst, "error", err)
				failed.Add(1)
				return
			}
			if exists {
				skipped.Add(1)
				return
			}
			if err := e.bucket.CopyPublic(ctx, src, dst); err != nil {
				slog.Error("copy failed", "src", src, "dst", dst, "error", err)
				failed.Add(1)
				return
			}
			copied.Add(1)
		}(key, dst)
	}
	wg.Wait()

	stats := Stats{
		Inspected: int64(n),
		Copied:    copied.Load(),
		Skipped:   skipped.Load(),
		Failed:    failed.Load(),
	}
	slog.Info("path migration done", "category", category,
		"inspected", stats.Inspected, "copied", stats.Copied,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// RegenerateIndex re-derives the flat metadata map and the date-bucketed
// index from every *.metadata.json blob under the canonical prefix. Writes
// are unconditional overwrites; this sweep is the repair path for the
// non-atomic dual write, so it must not existence-check.
func (e *Engine) RegenerateIndex(ctx context.Context, category string, limit int) (Stats, error) {
	keys, err := e.bucket.List(ctx, canonicalMetadataPrefix(category))
	if err != nil {
		return Stats{}, store.NewInternalError("list metadata prefix", err)
	}

	var (
		written, failed atomic.Int64
		wg              sync.WaitGroup
	)
	sem := make(chan struct{}, MaxInFlight)
	n := 0
	for _, key := range keys {
		if !strings.HasSuffix(key, ".metadata.json") {
			continue
		}
		if limit > 0 && n > limit {
			break
		}
		n++

		sem <- struct{}{}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := e.bucket.ReadAll(ctx, key)
			if err != nil {
				slog.Error("read metadata blob failed", "key", key, "error", err)
				failed.Add(1)
				return
			}
			var record store.MetadataRecord
			if err := json.Unmarshal(data, &record); err != nil {
				slog.Error("parse metadata blob failed", "key", key, "error", err)
				failed.Add(1)
				return
			}
			if err := e.store.PutMetadata(ctx, category, record); err != nil {
				slog.Error("write metadata failed", "key", key, "error", err)
				failed.Add(1)
				return
			}
			written.Add(1)
		}(key)
	}
	wg.Wait()

	stats := Stats{
		Inspected: int64(n),
		Written:   written.Load(),
		Failed:    failed.Load(),
	}
	slog.Info("index regeneration done", "category", category,
		"inspected", stats.Inspected, "written", stats.Written, "failed", stats.Failed)
	return stats, nil
}
