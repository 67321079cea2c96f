package docdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteDB stores one row per document path. The write connection is capped
// at a single open conn to serialize writers; reads go through a WAL pool.
type sqliteDB struct {
	write *sql.DB
	read  *sql.DB
}

func openSQLite(dir string) (*sqliteDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := filepath.Join(dir, "docdb.db") + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", dsn)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}

	if _, err := write.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			path  TEXT PRIMARY KEY,
			doc   BLOB NOT NULL
		)
	`); err != nil {
		write.Close()
		read.Close()
		return nil, fmt.Errorf("create nodes table: %w", err)
	}
	return &sqliteDB{write: write, read: read}, nil
}

func (d *sqliteDB) Close() error {
	err := d.write.Close()
	if rerr := d.read.Close(); err == nil {
		err = rerr
	}
	return err
}

func (d *sqliteDB) Get(ctx context.Context, path string, out any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	var doc []byte
	err = d.read.QueryRowContext(ctx, "SELECT doc FROM nodes WHERE path = ?", path).Scan(&doc)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(doc, out)
}

func (d *sqliteDB) Set(ctx context.Context, path string, v any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	doc, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteSQLiteSubtree(ctx, tx, path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO nodes (path, doc) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET doc = excluded.doc
	`, path, []byte(doc)); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *sqliteDB) Update(ctx context.Context, path string, children map[string]any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for name, v := range children {
		child := path + "/" + name
		doc, err := marshalValue(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", child, err)
		}
		if err := deleteSQLiteSubtree(ctx, tx, child); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (path, doc) VALUES (?, ?)
			ON CONFLICT(path) DO UPDATE SET doc = excluded.doc
		`, child, []byte(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *sqliteDB) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteSQLiteSubtree(ctx, tx, path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *sqliteDB) Exists(ctx context.Context, path string) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	var one int
	err = d.read.QueryRowContext(ctx, "SELECT 1 FROM nodes WHERE path = ?", path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *sqliteDB) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	prefix := path + "/"
	// Paths are ASCII; a 0xff-terminated upper bound covers the subtree
	// without LIKE, whose wildcards collide with '_' in category names.
	rows, err := d.read.QueryContext(ctx,
		"SELECT path, doc FROM nodes WHERE path >= ? AND path < ? ORDER BY path",
		prefix, prefix+"\xff")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []pathDoc
	for rows.Next() {
		var p string
		var doc []byte
		if err := rows.Scan(&p, &doc); err != nil {
			return nil, err
		}
		pairs = append(pairs, pathDoc{rel: strings.TrimPrefix(p, prefix), doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assembleChildren(pairs)
}

func deleteSQLiteSubtree(ctx context.Context, tx *sql.Tx, path string) error {
	prefix := path + "/"
	_, err := tx.ExecContext(ctx,
		"DELETE FROM nodes WHERE path >= ? AND path < ?", prefix, prefix+"\xff")
	return err
}
