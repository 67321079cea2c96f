// Package docdb provides a hierarchical path-addressed document store.
//
// Paths are slash-separated strings ("transcripts/public/cat/metadata/vid").
// Each path may hold one JSON document. Set replaces the whole subtree at a
// path; Update merges child documents without touching siblings; Remove
// deletes a subtree. Only single-path Set/Update is atomic — there are no
// cross-path transactions.
package docdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("docdb: not found")

// DB is the document database used as the coordination substrate.
type DB interface {
	// Get unmarshals the document at path into out.
	Get(ctx context.Context, path string, out any) error
	// Set marshals v and replaces the subtree rooted at path with it.
	Set(ctx context.Context, path string, v any) error
	// Update writes each child document under path, leaving siblings alone.
	Update(ctx context.Context, path string, children map[string]any) error
	// Remove deletes the document at path and everything beneath it.
	Remove(ctx context.Context, path string) error
	// Exists reports whether a document is stored at exactly path.
	Exists(ctx context.Context, path string) (bool, error)
	// Children returns the assembled immediate children of path. Nested
	// descendants are folded into JSON objects keyed by path segment.
	Children(ctx context.Context, path string) (map[string]json.RawMessage, error)
	Close() error
}

// Open creates a DB at dir using the named backend: badger (default),
// pebble, or sqlite.
func Open(backend, dir string) (DB, error) {
	switch backend {
	case "", "badger":
		return openBadger(dir)
	case "pebble":
		return openPebble(dir)
	case "sqlite":
		return openSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown docdb backend %q", backend)
	}
}

// Node key layout: n|{path}. The '|' separator keeps node keys apart from
// any future key families, mirroring the prefix scheme used for the queue
// store's internal indexes.
const nodePrefix = "n|"

func nodeKey(path string) []byte {
	return append([]byte(nodePrefix), path...)
}

// subtreePrefix is the scan prefix for all descendants of path: n|{path}/
func subtreePrefix(path string) []byte {
	k := append([]byte(nodePrefix), path...)
	return append(k, '/')
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix. Paths are ASCII, so bumping the last byte is sufficient.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", errors.New("docdb: empty path")
	}
	if strings.Contains(path, "//") {
		return "", fmt.Errorf("docdb: malformed path %q", path)
	}
	return path, nil
}

func marshalValue(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// assembleChildren folds flat (relativePath, document) pairs into the
// immediate-child view: a pair at depth 1 contributes its document verbatim,
// deeper pairs are nested into JSON objects.
func assembleChildren(pairs []pathDoc) (map[string]json.RawMessage, error) {
	tree := map[string]any{}
	for _, p := range pairs {
		segs := strings.Split(p.rel, "/")
		node := tree
		for _, seg := range segs[:len(segs)-1] {
			next, ok := node[seg].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[seg] = next
			}
			node = next
		}
		node[segs[len(segs)-1]] = json.RawMessage(p.doc)
	}

	out := make(map[string]json.RawMessage, len(tree))
	for name, v := range tree {
		if raw, ok := v.(json.RawMessage); ok {
			out[name] = raw
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("assemble child %q: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}

type pathDoc struct {
	rel string
	doc []byte
}
