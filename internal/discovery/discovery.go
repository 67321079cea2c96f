// Package discovery sweeps upstream catalogs for videos that have no
// transcript metadata yet and enqueues them for workers.
package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/user/scribe/internal/catalog"
	"github.com/user/scribe/internal/notify"
	"github.com/user/scribe/internal/store"
)

// Enumerator diffs each category's catalog against its metadata index.
type Enumerator struct {
	store     *store.Store
	source    catalog.Source
	notifier  notify.Publisher
	playlists map[string]string
}

// NewEnumerator wires a sweep. playlists maps category names to the upstream
// playlist each one mirrors.
func NewEnumerator(s *store.Store, src catalog.Source, n notify.Publisher, playlists map[string]string) *Enumerator {
	if n == nil {
		n = notify.Noop{}
	}
	return &Enumerator{store: s, source: src, notifier: n, playlists: playlists}
}

// FindNewVideos enumerates every configured category and enqueues catalog
// entries absent from the metadata index. Membership in the metadata index is
// the only "done" signal, so ids already sitting in the queue are re-enqueued
// with fresh unclaimed entries. A positive limit is a global cap across
// categories; once more than limit new ids have been seen the sweep stops
// mid-category. limit <= 0 means no cap. At most one wake is published per
// sweep, regardless of how many categories gained work.
func (e *Enumerator) FindNewVideos(ctx context.Context, limit int) ([]string, error) {
	categories := make([]string, 0, len(e.playlists))
	for c := range e.playlists {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var (
		found   []string
		touched []string
		n       int
	)
	for _, category := range categories {
		if err := e.store.ValidateCategory(ctx, category); err != nil {
			slog.Warn("skipping category", "category", category, "error", err)
			continue
		}
		done, err := e.store.MetadataIDs(ctx, category)
		if err != nil {
			return nil, err
		}
		videos, err := e.source.List(ctx, e.playlists[category])
		if err != nil {
			return nil, err
		}

		entries := map[string]store.QueueEntry{}
		for _, v := range videos {
			if _, ok := done[v.ID]; ok {
				continue
			}
			n++
			if limit > 0 && n > limit {
				break
			}
			entries[v.ID] = store.NewQueueEntry(e.store.Now())
			found = append(found, v.ID)
		}
		if len(entries) > 0 {
			if err := e.store.EnqueueEntries(ctx, category, entries); err != nil {
				return nil, err
			}
			touched = append(touched, category)
			slog.Info("enqueued new videos", "category", category, "count", len(entries))
		}
		if limit > 0 && n > limit {
			slog.Info("sweep limit reached", "limit", limit)
			break
		}
	}

	if len(found) > 0 {
		if err := e.notifier.Wake(ctx, touched); err != nil {
			return nil, err
		}
	}
	return found, nil
}
