package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueEntry is one pending or claimed transcription job. start and
// instance are both nil until a worker claims the entry.
type QueueEntry struct {
	Added    time.Time  `json:"added"`
	Start    *time.Time `json:"start"`
	Instance *string    `json:"instance"`
}

// NewQueueEntry returns a fresh unclaimed entry added at the given time.
func NewQueueEntry(added time.Time) QueueEntry {
	return QueueEntry{Added: added.UTC()}
}

// Claimed reports whether a worker instance holds this entry.
func (e QueueEntry) Claimed() bool {
	return e.Start != nil && e.Instance != nil
}

// Speaker is one entry in a speakerInfo payload.
type Speaker struct {
	Name string   `json:"name,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// SpeakerInfo maps diarization keys ("SPEAKER_00") to attributions.
type SpeakerInfo map[string]Speaker

// NameOption records when a display name was last seen and with which tags.
type NameOption struct {
	TxnID      string   `json:"txnId"`
	RecentTags []string `json:"recentTags"`
}

// ExistingOptions is the per-category grow-only aggregate of every name and
// tag previously submitted. Keys are never deleted by normal traffic.
type ExistingOptions struct {
	Names map[string]NameOption `json:"names"`
	Tags  map[string]string     `json:"tags"`
}

func newExistingOptions() ExistingOptions {
	return ExistingOptions{
		Names: map[string]NameOption{},
		Tags:  map[string]string{},
	}
}

// AuditRecord captures one mutation request verbatim, plus the verified
// identity that issued it. Write-once; never read back by the live path.
type AuditRecord struct {
	Name          string              `json:"name"`
	Headers       map[string][]string `json:"headers"`
	Body          json.RawMessage     `json:"body"`
	Email         string              `json:"email"`
	EmailVerified bool                `json:"emailVerified"`
	UID           string              `json:"uid"`
}

// MetadataRecord is one video's catalog metadata. The shape comes from the
// transcription pipeline, so it is kept schemaless apart from the two
// fields the index needs.
type MetadataRecord map[string]any

// VideoID returns the record's video_id field.
func (m MetadataRecord) VideoID() (string, error) {
	v, ok := m["video_id"].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("metadata record missing video_id")
	}
	return v, nil
}

// PublishDay returns the record's publish date truncated to a yyyy-MM-dd
// date-index bucket.
func (m MetadataRecord) PublishDay() (string, error) {
	raw, ok := m["publish_date"].(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("metadata record missing publish_date")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable publish_date %q", raw)
}
