package docdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

type badgerDB struct {
	db *badger.DB
}

func openBadger(dir string) (*badgerDB, error) {
	opts := badger.DefaultOptions(filepath.Join(dir, "badger"))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger docdb: %w", err)
	}
	return &badgerDB{db: db}, nil
}

func (d *badgerDB) Close() error {
	return d.db.Close()
}

func (d *badgerDB) Get(ctx context.Context, path string, out any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	return d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(path))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func (d *badgerDB) Set(ctx context.Context, path string, v any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	doc, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		if err := deleteBadgerPrefix(txn, subtreePrefix(path)); err != nil {
			return err
		}
		return txn.Set(nodeKey(path), doc)
	})
}

func (d *badgerDB) Update(ctx context.Context, path string, children map[string]any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		for name, v := range children {
			child := path + "/" + name
			doc, err := marshalValue(v)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", child, err)
			}
			if err := deleteBadgerPrefix(txn, subtreePrefix(child)); err != nil {
				return err
			}
			if err := txn.Set(nodeKey(child), doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *badgerDB) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		if err := deleteBadgerPrefix(txn, subtreePrefix(path)); err != nil {
			return err
		}
		err := txn.Delete(nodeKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (d *badgerDB) Exists(ctx context.Context, path string) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	var exists bool
	err = d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

func (d *badgerDB) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	prefix := subtreePrefix(path)
	var pairs []pathDoc
	err = d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rel := string(bytes.TrimPrefix(item.Key(), prefix))
			doc, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			pairs = append(pairs, pathDoc{rel: rel, doc: doc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assembleChildren(pairs)
}

func deleteBadgerPrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
