package store

import (
	"context"
	"testing"
	"time"

	"github.com/user/scribe/internal/docdb"
)

func testStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	db, err := docdb.Open("badger", t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, opts...)
}

func enabledStore(t *testing.T, category string, opts ...Option) *Store {
	t.Helper()
	s := testStore(t, opts...)
	if err := s.EnableCategory(context.Background(), category); err != nil {
		t.Fatalf("EnableCategory: %v", err)
	}
	return s
}

func TestSanitizeCategory(t *testing.T) {
	for _, good := range []string{"sps", "board_meetings", "a-b-c", "x"} {
		if _, err := SanitizeCategory(good); err != nil {
			t.Errorf("SanitizeCategory(%q) = %v", good, err)
		}
	}
	for _, bad := range []string{"", "Uppercase", "has space", "way-too-long-category-name", "dot.dot"} {
		if _, err := SanitizeCategory(bad); err == nil {
			t.Errorf("SanitizeCategory(%q) accepted", bad)
		}
	}
}

func TestValidateCategoryRequiresSentinel(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.ValidateCategory(ctx, "sps"); !IsValidationError(err) {
		t.Errorf("missing flag: err = %v, want validation", err)
	}

	// Any value other than exactly 1 stays disabled.
	if err := s.DB().Set(ctx, "transcripts/public/sps/<enabled>", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.ValidateCategory(ctx, "sps"); !IsValidationError(err) {
		t.Errorf("enabled=0: err = %v, want validation", err)
	}

	if err := s.EnableCategory(ctx, "sps"); err != nil {
		t.Fatalf("EnableCategory: %v", err)
	}
	if err := s.ValidateCategory(ctx, "sps"); err != nil {
		t.Errorf("enabled=1: err = %v", err)
	}
}

func TestDisabledCategoryRejectsAllMutations(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if _, err := s.Claim(ctx, "sps", []string{"v1"}, "inst-1"); !IsValidationError(err) {
		t.Errorf("Claim: err = %v, want validation", err)
	}
	if err := s.Release(ctx, "sps", []string{"v1"}); !IsValidationError(err) {
		t.Errorf("Release: err = %v, want validation", err)
	}
	if _, err := s.SetMetadataBatch(ctx, "sps", map[string]MetadataRecord{
		"v1": {"video_id": "v1", "publish_date": "2024-01-02"},
	}); !IsValidationError(err) {
		t.Errorf("SetMetadataBatch: err = %v, want validation", err)
	}
	if _, err := s.ApplySpeakerInfo(ctx, SpeakerInfoRequest{
		Category:    "sps",
		VideoID:     "v1",
		SpeakerInfo: []byte(`{"SPEAKER_00":{"name":"Alice"}}`),
	}, Identity{}); !IsValidationError(err) {
		t.Errorf("ApplySpeakerInfo: err = %v, want validation", err)
	}

	// Nothing may have been written, audit trail included.
	entries, err := s.ListAudit(ctx, "sps", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(entries))
	}
	queue, err := s.Queue(ctx, "sps")
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("queue entries = %d, want 0", len(queue))
	}
}

func TestNewTxnIDStrategies(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 10, 20, 30, 999, time.UTC)
	clock := func() time.Time { return fixed }

	second := testStore(t, WithClock(clock), WithTxnIDStrategy(TxnIDSecond))
	if got := second.NewTxnID(); got != "2024-06-01T10:20:30Z" {
		t.Errorf("second txn id = %q", got)
	}

	unique := testStore(t, WithClock(clock), WithTxnIDStrategy(TxnIDUnique))
	a, b := unique.NewTxnID(), unique.NewTxnID()
	if a == b {
		t.Errorf("unique txn ids collided: %q", a)
	}
	if ts, err := ParseTxnTime(a); err != nil || !ts.Equal(fixed.Truncate(time.Second)) {
		t.Errorf("ParseTxnTime(%q) = %v, %v", a, ts, err)
	}
}
