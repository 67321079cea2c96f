package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/scribe/internal/docdb"
)

// CheckWorkerAuth verifies a caller-supplied (userID, authCode) pair against
// the code stored for scope (a category, or AdminScope for claim/release).
func (s *Store) CheckWorkerAuth(ctx context.Context, scope, userID, authCode string) error {
	if userID == "" {
		return NewValidationError("missing user_id")
	}
	var stored string
	err := s.db.Get(ctx, authCodePath(scope, userID), &stored)
	if errors.Is(err, docdb.ErrNotFound) {
		return NewUnauthorizedError("invalid auth code")
	}
	if err != nil {
		return NewInternalError("read auth code", err)
	}
	if authCode == "" || authCode != stored {
		return NewUnauthorizedError("invalid auth code")
	}
	return nil
}

// SetWorkerAuthCode provisions an auth code. Operator/test helper.
func (s *Store) SetWorkerAuthCode(ctx context.Context, scope, userID, authCode string) error {
	return s.db.Set(ctx, authCodePath(scope, userID), authCode)
}

// Queue returns the full queue snapshot for a category, claimed entries
// included. Callers filter client-side.
func (s *Store) Queue(ctx context.Context, category string) (map[string]QueueEntry, error) {
	children, err := s.db.Children(ctx, queuePath(category))
	if err != nil {
		return nil, NewInternalError("read queue", err)
	}
	out := make(map[string]QueueEntry, len(children))
	for id, raw := range children {
		var e QueueEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, NewInternalError(fmt.Sprintf("decode queue entry %s", id), err)
		}
		out[id] = e
	}
	return out, nil
}

// EnqueueEntries merges fresh unclaimed entries into a category's queue.
// Existing entries for the same ids are overwritten wholesale, resetting
// any claim state. Discovery keys off the metadata index, not the queue, so
// re-enqueueing pending ids is expected.
func (s *Store) EnqueueEntries(ctx context.Context, category string, entries map[string]QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	children := make(map[string]any, len(entries))
	for id, e := range entries {
		children[id] = e
	}
	if err := s.db.Update(ctx, queuePath(category), children); err != nil {
		return NewInternalError("enqueue entries", err)
	}
	return nil
}

// Claim assigns queue entries to a worker instance. Ids no longer in the
// queue are silently skipped; ids already claimed are overwritten — the
// last claimer wins. Returns the ids actually claimed.
func (s *Store) Claim(ctx context.Context, category string, videoIDs []string, instanceID string) ([]string, error) {
	if instanceID == "" {
		return nil, NewValidationError("missing instance_id")
	}
	if err := s.ValidateCategory(ctx, category); err != nil {
		return nil, err
	}

	// Snapshot-then-write is not atomic at the database; the per-category
	// lock at least serializes claimers inside this process.
	l := s.categoryLock(category)
	l.Lock()
	defer l.Unlock()

	existing, err := s.Queue(ctx, category)
	if err != nil {
		return nil, err
	}

	started := s.now().UTC()
	claimed := []string{}
	for _, id := range videoIDs {
		entry, ok := existing[id]
		if !ok {
			continue
		}
		entry.Start = &started
		inst := instanceID
		entry.Instance = &inst
		if err := s.db.Set(ctx, queueEntryPath(category, id), entry); err != nil {
			return nil, NewInternalError(fmt.Sprintf("claim %s", id), err)
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// Release removes entries from the queue entirely. This is the terminal
// transition: there is no retained completed state, and a failed worker's
// video only resurfaces through a fresh catalog diff.
func (s *Store) Release(ctx context.Context, category string, videoIDs []string) error {
	if err := s.ValidateCategory(ctx, category); err != nil {
		return err
	}
	for _, id := range videoIDs {
		if err := s.db.Remove(ctx, queueEntryPath(category, id)); err != nil {
			return NewInternalError(fmt.Sprintf("release %s", id), err)
		}
	}
	return nil
}
