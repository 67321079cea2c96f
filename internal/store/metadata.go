package store

import (
	"context"
	"fmt"
	"log/slog"
)

// MetadataIDs returns the set of video ids present in a category's flat
// metadata map. Discovery treats membership here as "already processed".
func (s *Store) MetadataIDs(ctx context.Context, category string) (map[string]struct{}, error) {
	children, err := s.db.Children(ctx, metadataPath(category))
	if err != nil {
		return nil, NewInternalError("read metadata index", err)
	}
	out := make(map[string]struct{}, len(children))
	for id := range children {
		out[id] = struct{}{}
	}
	return out, nil
}

// PutMetadata writes one record to the flat metadata map and mirrors it
// into the date-bucketed index. The two writes are independent; a crash
// between them leaves the index stale until the next regeneration sweep.
func (s *Store) PutMetadata(ctx context.Context, category string, record MetadataRecord) error {
	videoID, err := record.VideoID()
	if err != nil {
		return NewValidationError(err.Error())
	}
	day, err := record.PublishDay()
	if err != nil {
		return NewValidationError(err.Error())
	}
	if err := s.db.Set(ctx, metadataRecordPath(category, videoID), record); err != nil {
		return NewInternalError(fmt.Sprintf("write metadata %s", videoID), err)
	}
	if err := s.db.Set(ctx, dateIndexPath(category, day, videoID), record); err != nil {
		return NewInternalError(fmt.Sprintf("write date index %s", videoID), err)
	}
	return nil
}

// SetMetadataBatch validates the category gate once and writes each record
// through PutMetadata. Used by the metadata endpoint's set command.
func (s *Store) SetMetadataBatch(ctx context.Context, category string, records map[string]MetadataRecord) ([]string, error) {
	if err := s.ValidateCategory(ctx, category); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, NewValidationError("missing metadata")
	}
	ids := make([]string, 0, len(records))
	for id, record := range records {
		if _, ok := record["video_id"]; !ok {
			record["video_id"] = id
		}
		if err := s.PutMetadata(ctx, category, record); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	slog.Info("metadata written", "category", category, "count", len(ids))
	return ids, nil
}
