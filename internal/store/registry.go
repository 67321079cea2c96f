package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/user/scribe/internal/docdb"
)

// MaxCategoryLength bounds category identifiers.
const MaxCategoryLength = 20

var categoryRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// SanitizeCategory validates the shape of a category identifier without
// touching the database. Returns the id unchanged when valid.
func SanitizeCategory(id string) (string, error) {
	if id == "" {
		return "", NewValidationError("expects category")
	}
	if len(id) > MaxCategoryLength {
		return "", NewValidationError("invalid category")
	}
	if !categoryRe.MatchString(id) {
		return "", NewValidationError("invalid category")
	}
	return id, nil
}

// ValidateCategory gates every mutation: the id must be well formed and the
// category's <enabled> sentinel must hold exactly 1.
func (s *Store) ValidateCategory(ctx context.Context, id string) error {
	id, err := SanitizeCategory(id)
	if err != nil {
		return err
	}
	var enabled int
	err = s.db.Get(ctx, enabledPath(id), &enabled)
	if errors.Is(err, docdb.ErrNotFound) {
		return NewValidationError("invalid category")
	}
	if err != nil {
		return NewInternalError(fmt.Sprintf("read enabled flag for %s", id), err)
	}
	if enabled != enabledSentinel {
		return NewValidationError("invalid category")
	}
	return nil
}

// EnableCategory provisions a category for writes. Used by operators and
// tests; normal traffic never flips the flag.
func (s *Store) EnableCategory(ctx context.Context, id string) error {
	id, err := SanitizeCategory(id)
	if err != nil {
		return err
	}
	return s.db.Set(ctx, enabledPath(id), enabledSentinel)
}
