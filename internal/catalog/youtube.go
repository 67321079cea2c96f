package catalog

import (
	"context"
	"fmt"

	"github.com/kkdai/youtube/v2"
)

// YouTube lists playlist contents via the innertube endpoints.
type YouTube struct {
	client youtube.Client
}

func NewYouTube() *YouTube {
	return &YouTube{client: youtube.Client{}}
}

func (y *YouTube) List(ctx context.Context, playlistID string) ([]Video, error) {
	playlist, err := y.client.GetPlaylistContext(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist %s: %w", playlistID, err)
	}
	out := make([]Video, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		out = append(out, Video{ID: entry.ID, Title: entry.Title})
	}
	return out, nil
}
