package store

import (
	"context"
	"testing"
)

func TestPutMetadataDualWrite(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	rec := MetadataRecord{
		"video_id":     "vid1",
		"title":        "Board Meeting",
		"publish_date": "2024-06-01T19:00:00Z",
	}
	if err := s.PutMetadata(ctx, "sps", rec); err != nil {
		t.Fatalf("PutMetadata: %v", err)
	}

	var flat, indexed MetadataRecord
	if err := s.DB().Get(ctx, "transcripts/public/sps/metadata/vid1", &flat); err != nil {
		t.Fatalf("flat record missing: %v", err)
	}
	if err := s.DB().Get(ctx, "transcripts/public/sps/index/date/2024-06-01/vid1", &indexed); err != nil {
		t.Fatalf("date index missing: %v", err)
	}
	if flat["title"] != "Board Meeting" || indexed["title"] != "Board Meeting" {
		t.Errorf("flat = %v, indexed = %v", flat, indexed)
	}
}

func TestPutMetadataRejectsUnparseableRecord(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	if err := s.PutMetadata(ctx, "sps", MetadataRecord{"title": "no id"}); !IsValidationError(err) {
		t.Errorf("missing video_id: err = %v", err)
	}
	if err := s.PutMetadata(ctx, "sps", MetadataRecord{"video_id": "v", "publish_date": "junk"}); !IsValidationError(err) {
		t.Errorf("bad publish_date: err = %v", err)
	}
}

func TestSetMetadataBatchDefaultsVideoID(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	ids, err := s.SetMetadataBatch(ctx, "sps", map[string]MetadataRecord{
		"vid9": {"title": "Budget Hearing", "publish_date": "2024-07-04"},
	})
	if err != nil {
		t.Fatalf("SetMetadataBatch: %v", err)
	}
	if len(ids) != 1 || ids[0] != "vid9" {
		t.Errorf("ids = %v", ids)
	}

	var rec MetadataRecord
	if err := s.DB().Get(ctx, "transcripts/public/sps/metadata/vid9", &rec); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec["video_id"] != "vid9" {
		t.Errorf("video_id = %v, want defaulted from key", rec["video_id"])
	}

	got, err := s.MetadataIDs(ctx, "sps")
	if err != nil {
		t.Fatalf("MetadataIDs: %v", err)
	}
	if _, ok := got["vid9"]; !ok {
		t.Errorf("MetadataIDs = %v", got)
	}
}
