package store

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
)

func speakerReq(payload string) SpeakerInfoRequest {
	return SpeakerInfoRequest{
		Category:    "sps",
		VideoID:     "vid123",
		SpeakerInfo: json.RawMessage(payload),
		Body:        json.RawMessage(`{"speakerInfo":` + payload + `}`),
	}
}

func TestApplySpeakerInfoMerge(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	res, err := s.ApplySpeakerInfo(ctx,
		speakerReq(`{"SPEAKER_00":{"name":"Alice","tags":["ptsa","parent"]}}`),
		Identity{Email: "a@example.com", EmailVerified: true, UID: "u1"})
	if err != nil {
		t.Fatalf("ApplySpeakerInfo: %v", err)
	}
	if !slices.Contains(res.ExistingNames, "Alice") {
		t.Errorf("existingNames = %v", res.ExistingNames)
	}
	if !slices.Contains(res.ExistingTags, "ptsa") || !slices.Contains(res.ExistingTags, "parent") {
		t.Errorf("existingTags = %v", res.ExistingTags)
	}

	opts, err := s.ExistingOptionsFor(ctx, "sps")
	if err != nil {
		t.Fatalf("ExistingOptionsFor: %v", err)
	}
	if got := opts.Names["Alice"].RecentTags; !slices.Equal(got, []string{"ptsa", "parent"}) {
		t.Errorf("recentTags = %v", got)
	}
}

func TestApplySpeakerInfoIdempotentMerge(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	payload := `{"SPEAKER_00":{"name":"Alice","tags":["ptsa"]}}`
	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(payload), Identity{UID: "u1"}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first, _ := s.ExistingOptionsFor(ctx, "sps")

	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(payload), Identity{UID: "u1"}); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second, _ := s.ExistingOptionsFor(ctx, "sps")

	// The second identical payload is a value-level no-op: the recorded
	// txn id for Alice must be the one from the first call.
	if first.Names["Alice"].TxnID != second.Names["Alice"].TxnID {
		t.Errorf("Alice rewritten: %q -> %q", first.Names["Alice"].TxnID, second.Names["Alice"].TxnID)
	}
	if first.Tags["ptsa"] != second.Tags["ptsa"] {
		t.Errorf("ptsa rewritten")
	}

	// But every call writes its own audit record.
	audits, err := s.ListAudit(ctx, "sps", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(audits) != 2 {
		t.Errorf("audit records = %d, want 2", len(audits))
	}
}

func TestApplySpeakerInfoChangedTagsRewrite(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Alice","tags":["ptsa"]}}`), Identity{}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Alice","tags":["board"]}}`), Identity{}); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	opts, _ := s.ExistingOptionsFor(ctx, "sps")
	if got := opts.Names["Alice"].RecentTags; !slices.Equal(got, []string{"board"}) {
		t.Errorf("recentTags = %v, want [board]", got)
	}
	// Old tags stay in the grow-only tag set.
	if _, ok := opts.Tags["ptsa"]; !ok {
		t.Errorf("ptsa dropped from tag set")
	}
}

func TestApplySpeakerInfoRejectsBadTagsBeforeWrites(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	_, err := s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Alice","tags":"not-an-array"}}`), Identity{})
	if !IsValidationError(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	_, err = s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Alice","tags":["ok",42]}}`), Identity{})
	if !IsValidationError(err) {
		t.Fatalf("non-string tag: err = %v, want validation", err)
	}

	audits, _ := s.ListAudit(ctx, "sps", 0)
	if len(audits) != 0 {
		t.Errorf("audit written before validation failure: %d records", len(audits))
	}
	var node any
	if err := s.DB().Get(ctx, "transcripts/public/sps/v/vid123/speakerInfo", &node); err == nil {
		t.Errorf("live speakerInfo written despite validation failure")
	}
}

func TestApplySpeakerInfoOverwritesLiveNode(t *testing.T) {
	ctx := context.Background()
	s := enabledStore(t, "sps")

	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Alice"},"SPEAKER_01":{"name":"Bob"}}`), Identity{}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := s.ApplySpeakerInfo(ctx, speakerReq(`{"SPEAKER_00":{"name":"Carol"}}`), Identity{}); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var live SpeakerInfo
	if err := s.DB().Get(ctx, "transcripts/public/sps/v/vid123/speakerInfo", &live); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(live) != 1 || live["SPEAKER_00"].Name != "Carol" {
		t.Errorf("live node = %v, want wholesale replacement", live)
	}
}

func TestValidateVideoID(t *testing.T) {
	for _, good := range []string{"abc", "dQw4w9WgXcQ", "a_b-c"} {
		if err := ValidateVideoID(good); err != nil {
			t.Errorf("ValidateVideoID(%q) = %v", good, err)
		}
	}
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	for _, bad := range []string{"", "has space", "semi;colon", string(long)} {
		if err := ValidateVideoID(bad); !IsValidationError(err) {
			t.Errorf("ValidateVideoID(%q) accepted", bad)
		}
	}
}
