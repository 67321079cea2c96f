package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"slices"

	"github.com/xeipuuv/gojsonschema"

	"github.com/user/scribe/internal/docdb"
)

// Video ids are opaque catalog identifiers. The legacy service accepted a
// looser base64 probe for long ids; here the charset is pinned instead.
const maxVideoIDLength = 64

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateVideoID rejects empty, over-long, or out-of-charset video ids.
func ValidateVideoID(id string) error {
	if id == "" {
		return NewValidationError("invalid videoId")
	}
	if len(id) > maxVideoIDLength || !videoIDRe.MatchString(id) {
		return NewValidationError("invalid videoId")
	}
	return nil
}

// speakerInfoSchema pins the payload structure: every value is an object
// whose optional tags field is an array of strings.
var speakerInfoSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}
}`)

func validateSpeakerInfo(raw json.RawMessage) error {
	if len(raw) == 0 {
		return NewValidationError("expect speakerInfo")
	}
	result, err := gojsonschema.Validate(speakerInfoSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewValidationError("expect speakerInfo to be an object")
	}
	if !result.Valid() {
		return NewValidationError("expect tags to be an array of strings")
	}
	return nil
}

// Identity is the verified caller of an audited mutation.
type Identity struct {
	Email         string
	EmailVerified bool
	UID           string
}

// SpeakerInfoRequest carries one audited annotation mutation. SpeakerInfo
// and Body stay raw: the schema check runs against the bytes as submitted,
// and the audit trail records the request verbatim.
type SpeakerInfoRequest struct {
	Category    string
	VideoID     string
	SpeakerInfo json.RawMessage
	Headers     map[string][]string
	Body        json.RawMessage
}

// SpeakerInfoResult echoes the applied annotations plus the current
// aggregate option key lists.
type SpeakerInfoResult struct {
	SpeakerInfo   SpeakerInfo `json:"speakerInfo"`
	ExistingTags  []string    `json:"existingTags"`
	ExistingNames []string    `json:"existingNames"`
}

// ApplySpeakerInfo validates and applies one annotation payload: audit
// record first, then a wholesale overwrite of the video's speakerInfo node,
// then a value-idempotent merge into the category's ExistingOptions.
func (s *Store) ApplySpeakerInfo(ctx context.Context, req SpeakerInfoRequest, caller Identity) (*SpeakerInfoResult, error) {
	if _, err := SanitizeCategory(req.Category); err != nil {
		return nil, err
	}
	if err := ValidateVideoID(req.VideoID); err != nil {
		return nil, err
	}
	if err := validateSpeakerInfo(req.SpeakerInfo); err != nil {
		return nil, err
	}
	var info SpeakerInfo
	if err := json.Unmarshal(req.SpeakerInfo, &info); err != nil {
		return nil, NewValidationError("expect speakerInfo")
	}

	if err := s.ValidateCategory(ctx, req.Category); err != nil {
		return nil, err
	}

	allNames := []string{}
	allTags := []string{}
	recentTagsForName := map[string][]string{}
	for _, sp := range info {
		if sp.Name != "" {
			if !slices.Contains(allNames, sp.Name) {
				allNames = append(allNames, sp.Name)
			}
			if sp.Tags != nil {
				recentTagsForName[sp.Name] = uniqueStrings(sp.Tags)
			}
		}
		for _, tag := range sp.Tags {
			if !slices.Contains(allTags, tag) {
				allTags = append(allTags, tag)
			}
		}
	}

	txnID := s.NewTxnID()
	if err := s.WriteAudit(ctx, req.Category, txnID, AuditRecord{
		Name:          "speakerinfo POST",
		Headers:       req.Headers,
		Body:          req.Body,
		Email:         caller.Email,
		EmailVerified: caller.EmailVerified,
		UID:           caller.UID,
	}); err != nil {
		return nil, err
	}

	if err := s.db.Set(ctx, speakerInfoPath(req.Category, req.VideoID), req.SpeakerInfo); err != nil {
		return nil, NewInternalError("write speakerInfo", err)
	}

	// The aggregate merge is read-modify-write; serialize it per category.
	l := s.categoryLock(req.Category)
	l.Lock()
	defer l.Unlock()

	existing, err := s.loadExistingOptions(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	updated := false
	for _, name := range allNames {
		recent := recentTagsForName[name]
		prev, ok := existing.Names[name]
		if !ok || (recent != nil && !slices.Equal(prev.RecentTags, recent)) {
			if recent == nil {
				recent = []string{}
			}
			existing.Names[name] = NameOption{TxnID: txnID, RecentTags: recent}
			updated = true
		}
	}
	for _, tag := range allTags {
		if _, ok := existing.Tags[tag]; !ok {
			existing.Tags[tag] = txnID
			updated = true
		}
	}
	if updated {
		if err := s.db.Set(ctx, existingPath(req.Category), existing); err != nil {
			return nil, NewInternalError("write existing options", err)
		}
	}

	return &SpeakerInfoResult{
		SpeakerInfo:   info,
		ExistingTags:  sortedKeys(existing.Tags),
		ExistingNames: sortedNameKeys(existing.Names),
	}, nil
}

// ExistingOptionsFor returns the current aggregate, empty when unset.
func (s *Store) ExistingOptionsFor(ctx context.Context, category string) (ExistingOptions, error) {
	if _, err := SanitizeCategory(category); err != nil {
		return ExistingOptions{}, err
	}
	return s.loadExistingOptions(ctx, category)
}

func (s *Store) loadExistingOptions(ctx context.Context, category string) (ExistingOptions, error) {
	var existing ExistingOptions
	err := s.db.Get(ctx, existingPath(category), &existing)
	if errors.Is(err, docdb.ErrNotFound) {
		return newExistingOptions(), nil
	}
	if err != nil {
		return ExistingOptions{}, NewInternalError("read existing options", err)
	}
	if existing.Names == nil {
		existing.Names = map[string]NameOption{}
	}
	if existing.Tags == nil {
		existing.Tags = map[string]string{}
	}
	return existing, nil
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedNameKeys(m map[string]NameOption) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
