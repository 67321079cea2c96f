package docdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

type pebbleDB struct {
	db *pebble.DB
}

func openPebble(dir string) (*pebbleDB, error) {
	db, err := pebble.Open(filepath.Join(dir, "pebble"), &pebble.Options{
		MemTableSize:          16 << 20, // 16MB
		L0CompactionThreshold: 8,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble docdb: %w", err)
	}
	return &pebbleDB{db: db}, nil
}

func (d *pebbleDB) Close() error {
	return d.db.Close()
}

func (d *pebbleDB) Get(ctx context.Context, path string, out any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	val, closer, err := d.db.Get(nodeKey(path))
	if err == pebble.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(val, out)
}

func (d *pebbleDB) Set(ctx context.Context, path string, v any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	doc, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	b := d.db.NewBatch()
	defer b.Close()
	prefix := subtreePrefix(path)
	if err := b.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
		return err
	}
	if err := b.Set(nodeKey(path), doc, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (d *pebbleDB) Update(ctx context.Context, path string, children map[string]any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	b := d.db.NewBatch()
	defer b.Close()
	for name, v := range children {
		child := path + "/" + name
		doc, err := marshalValue(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", child, err)
		}
		prefix := subtreePrefix(child)
		if err := b.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
			return err
		}
		if err := b.Set(nodeKey(child), doc, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (d *pebbleDB) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	b := d.db.NewBatch()
	defer b.Close()
	prefix := subtreePrefix(path)
	if err := b.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
		return err
	}
	if err := b.Delete(nodeKey(path), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (d *pebbleDB) Exists(ctx context.Context, path string) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	_, closer, err := d.db.Get(nodeKey(path))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

func (d *pebbleDB) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	prefix := subtreePrefix(path)
	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = iter.Close() }()

	var pairs []pathDoc
	for iter.First(); iter.Valid(); iter.Next() {
		rel := string(bytes.TrimPrefix(iter.Key(), prefix))
		doc, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(doc))
		copy(cp, doc)
		pairs = append(pairs, pathDoc{rel: rel, doc: cp})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return assembleChildren(pairs)
}
