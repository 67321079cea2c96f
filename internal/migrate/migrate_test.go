package migrate

import (
	"context"
	"fmt"
	"testing"

	"github.com/user/scribe/internal/blobstore"
	"github.com/user/scribe/internal/docdb"
	"github.com/user/scribe/internal/store"
)

func testEngine(t *testing.T) (*Engine, *blobstore.Bucket, *store.Store) {
	t.Helper()
	ctx := context.Background()
	bucket, err := blobstore.Open(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })

	db, err := docdb.Open("badger", t.TempDir())
	if err != nil {
		t.Fatalf("open docdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := store.NewStore(db)
	return NewEngine(bucket, s), bucket, s
}

func TestClassify(t *testing.T) {
	cases := []struct {
		base, kind, suffix string
		ok                 bool
	}{
		{"v1.metadata.json", "metadata", "metadata.json", true},
		{"v1.json", "json", "en.json", true},
		{"v1.vtt", "vtt", "en.vtt", true},
		{"v1.srt", "srt", "en.srt", true},
		{"v1.txt", "txt", "en.txt", true},
		{"v1.tsv", "tsv", "en.tsv", true},
		{"v1.mp4", "", "", false},
		{"v1", "", "", false},
	}
	for _, c := range cases {
		kind, suffix, ok := classify(c.base)
		if kind != c.kind || suffix != c.suffix || ok != c.ok {
			t.Errorf("classify(%q) = %q %q %v, want %q %q %v",
				c.base, kind, suffix, ok, c.kind, c.suffix, c.ok)
		}
	}
}

func TestMigratePathsCopiesAndSkips(t *testing.T) {
	ctx := context.Background()
	e, bucket, _ := testEngine(t)

	seed := map[string]string{
		"transcription/cat/v1.srt":           "1\n00:00:00,000 --> 00:00:01,000\nhi\n",
		"transcription/cat/v1.metadata.json": `{"video_id":"v1"}`,
		"transcription/cat/v1.mp4":           "binary",
	}
	for key, body := range seed {
		if err := bucket.WriteAll(ctx, key, []byte(body)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	stats, err := e.MigratePaths(ctx, "cat", 0)
	if err != nil {
		t.Fatalf("MigratePaths: %v", err)
	}
	if stats.Copied != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	got, err := bucket.ReadAll(ctx, "transcripts/public/cat/srt/v1.en.srt")
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(got) != seed["transcription/cat/v1.srt"] {
		t.Errorf("destination content = %q", got)
	}
	if _, err := bucket.ReadAll(ctx, "transcripts/public/cat/metadata/v1.metadata.json"); err != nil {
		t.Errorf("metadata destination missing: %v", err)
	}
	if ok, _ := bucket.Exists(ctx, "transcripts/public/cat/mp4/v1.mp4"); ok {
		t.Errorf("unclassified suffix was copied")
	}

	// Second sweep short-circuits on the existence check.
	stats, err = e.MigratePaths(ctx, "cat", 0)
	if err != nil {
		t.Fatalf("second MigratePaths: %v", err)
	}
	if stats.Copied != 0 || stats.Skipped != 2 {
		t.Errorf("second sweep stats = %+v", stats)
	}
}

func TestMigratePathsLimit(t *testing.T) {
	ctx := context.Background()
	e, bucket, _ := testEngine(t)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("transcription/cat/v%03d.srt", i)
		if err := bucket.WriteAll(ctx, key, []byte("x")); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	stats, err := e.MigratePaths(ctx, "cat", 10)
	if err != nil {
		t.Fatalf("MigratePaths: %v", err)
	}
	// The limit check runs before the increment, so one extra item past the
	// limit is inspected and dispatched.
	if stats.Inspected != 11 {
		t.Errorf("inspected = %d, want 11", stats.Inspected)
	}
	if stats.Copied != 11 {
		t.Errorf("copied = %d, want 11", stats.Copied)
	}
}

func TestRegenerateIndexDualWrite(t *testing.T) {
	ctx := context.Background()
	e, bucket, s := testEngine(t)

	blobs := map[string]string{
		"transcripts/public/cat/metadata/v1.metadata.json":   `{"video_id":"v1","publish_date":"2024-06-01T19:00:00Z","title":"One"}`,
		"transcripts/public/cat/metadata/v2.metadata.json":   `{"video_id":"v2","publish_date":"2024-07-02","title":"Two"}`,
		"transcripts/public/cat/metadata/junk.metadata.json": `not json`,
		"transcripts/public/cat/metadata/skip.txt":           "ignored",
	}
	for key, body := range blobs {
		if err := bucket.WriteAll(ctx, key, []byte(body)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	stats, err := e.RegenerateIndex(ctx, "cat", 0)
	if err != nil {
		t.Fatalf("RegenerateIndex: %v", err)
	}
	if stats.Written != 2 {
		t.Errorf("written = %d, want 2", stats.Written)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}

	var rec store.MetadataRecord
	if err := s.DB().Get(ctx, "transcripts/public/cat/metadata/v1", &rec); err != nil {
		t.Fatalf("flat record missing: %v", err)
	}
	if rec["title"] != "One" {
		t.Errorf("record = %v", rec)
	}
	if err := s.DB().Get(ctx, "transcripts/public/cat/index/date/2024-07-02/v2", &rec); err != nil {
		t.Fatalf("date index missing: %v", err)
	}
}

func TestRegenerateIndexOverwrites(t *testing.T) {
	ctx := context.Background()
	e, bucket, s := testEngine(t)

	if err := s.PutMetadata(ctx, "cat", store.MetadataRecord{
		"video_id": "v1", "publish_date": "2024-06-01", "title": "Stale",
	}); err != nil {
		t.Fatalf("PutMetadata: %v", err)
	}

	key := "transcripts/public/cat/metadata/v1.metadata.json"
	body := `{"video_id":"v1","publish_date":"2024-06-01","title":"Fresh"}`
	if err := bucket.WriteAll(ctx, key, []byte(body)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := e.RegenerateIndex(ctx, "cat", 0); err != nil {
		t.Fatalf("RegenerateIndex: %v", err)
	}
	var rec store.MetadataRecord
	if err := s.DB().Get(ctx, "transcripts/public/cat/metadata/v1", &rec); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec["title"] != "Fresh" {
		t.Errorf("title = %v, want unconditional overwrite", rec["title"])
	}
}
