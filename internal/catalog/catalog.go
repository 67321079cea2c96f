// Package catalog lists the videos a channel has published, so discovery can
// diff them against the transcripts already on record.
package catalog

import (
	"context"
)

// Video is one published item from an upstream catalog.
type Video struct {
	ID    string
	Title string
}

// Source enumerates the current catalog for a playlist. Implementations must
// be safe for concurrent use.
type Source interface {
	List(ctx context.Context, playlistID string) ([]Video, error)
}

// Static is a fixed in-memory Source keyed by playlist id. Used in tests and
// for offline runs of the discovery command.
type Static map[string][]Video

func (s Static) List(_ context.Context, playlistID string) ([]Video, error) {
	return s[playlistID], nil
}
