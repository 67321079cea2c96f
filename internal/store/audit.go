package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TxnIDStrategy selects how audit transaction ids are generated. The legacy
// second-granularity id collides when two requests land in the same second
// (last write wins); the unique strategy appends a random suffix.
type TxnIDStrategy string

const (
	TxnIDSecond TxnIDStrategy = "second"
	TxnIDUnique TxnIDStrategy = "unique"
)

// ParseTxnIDStrategy validates a strategy name from config or flags.
func ParseTxnIDStrategy(name string) (TxnIDStrategy, error) {
	switch TxnIDStrategy(name) {
	case TxnIDSecond, TxnIDUnique:
		return TxnIDStrategy(name), nil
	}
	return "", NewValidationError(fmt.Sprintf("unknown txn id strategy %q", name))
}

// NewTxnID generates an audit transaction id for the current instant.
func (s *Store) NewTxnID() string {
	ts := s.now().UTC().Format("2006-01-02T15:04:05") + "Z"
	if s.txnID == TxnIDSecond {
		return ts
	}
	return ts + "-" + uuid.NewString()[:8]
}

// WriteAudit appends one write-once audit record. The live mutation path
// never reads these back.
func (s *Store) WriteAudit(ctx context.Context, category, txnID string, rec AuditRecord) error {
	if err := s.db.Set(ctx, auditPath(category, txnID), rec); err != nil {
		return NewInternalError(fmt.Sprintf("write audit %s", txnID), err)
	}
	return nil
}

// AuditEntry is one row of the operator-facing audit listing.
type AuditEntry struct {
	TxnID  string      `json:"txn_id"`
	Record AuditRecord `json:"record"`
}

// ListAudit returns up to limit audit records for a category, newest first.
// Txn ids sort lexicographically by timestamp, so ordering is by id.
func (s *Store) ListAudit(ctx context.Context, category string, limit int) ([]AuditEntry, error) {
	if _, err := SanitizeCategory(category); err != nil {
		return nil, err
	}
	children, err := s.db.Children(ctx, auditRootPath(category))
	if err != nil {
		return nil, NewInternalError("read audit trail", err)
	}
	out := make([]AuditEntry, 0, len(children))
	for txnID, raw := range children {
		var rec AuditRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, NewInternalError(fmt.Sprintf("decode audit %s", txnID), err)
		}
		out = append(out, AuditEntry{TxnID: txnID, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TxnID > out[j].TxnID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ParseTxnTime recovers the second-granularity timestamp prefix of a txn id.
func ParseTxnTime(txnID string) (time.Time, error) {
	const width = len("2006-01-02T15:04:05Z")
	if len(txnID) < width {
		return time.Time{}, fmt.Errorf("short txn id %q", txnID)
	}
	return time.Parse("2006-01-02T15:04:05Z", txnID[:width])
}
