package docdb

import (
	"context"
	"encoding/json"
	"testing"
)

func openBackends(t *testing.T) map[string]DB {
	t.Helper()
	out := map[string]DB{}
	for _, backend := range []string{"badger", "pebble", "sqlite"} {
		db, err := Open(backend, t.TempDir())
		if err != nil {
			t.Fatalf("Open(%s): %v", backend, err)
		}
		t.Cleanup(func() { db.Close() })
		out[backend] = db
	}
	return out
}

func TestSetGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			type rec struct {
				Title string `json:"title"`
				N     int    `json:"n"`
			}
			if err := db.Set(ctx, "a/b/c", rec{Title: "hello", N: 7}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			var got rec
			if err := db.Get(ctx, "a/b/c", &got); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Title != "hello" || got.N != 7 {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			var out any
			if err := db.Get(ctx, "nope", &out); err != ErrNotFound {
				t.Errorf("Get missing = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSetReplacesSubtree(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Update(ctx, "q", map[string]any{"v1": 1, "v2": 2}); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if err := db.Set(ctx, "q", map[string]int{"only": 3}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			var out any
			if err := db.Get(ctx, "q/v1", &out); err != ErrNotFound {
				t.Errorf("child survived Set: err = %v", err)
			}
		})
	}
}

func TestUpdateMergesChildren(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Update(ctx, "queue", map[string]any{"v1": map[string]string{"s": "a"}}); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if err := db.Update(ctx, "queue", map[string]any{"v2": map[string]string{"s": "b"}}); err != nil {
				t.Fatalf("Update: %v", err)
			}
			kids, err := db.Children(ctx, "queue")
			if err != nil {
				t.Fatalf("Children: %v", err)
			}
			if len(kids) != 2 {
				t.Fatalf("children = %d, want 2", len(kids))
			}
			for _, id := range []string{"v1", "v2"} {
				if _, ok := kids[id]; !ok {
					t.Errorf("missing child %s", id)
				}
			}
		})
	}
}

func TestChildrenAssemblesNested(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Set(ctx, "idx/date/2024-01-02/vid1", map[string]string{"t": "x"}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := db.Set(ctx, "idx/date/2024-01-02/vid2", map[string]string{"t": "y"}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			kids, err := db.Children(ctx, "idx/date")
			if err != nil {
				t.Fatalf("Children: %v", err)
			}
			raw, ok := kids["2024-01-02"]
			if !ok {
				t.Fatalf("missing date bucket, got %v", kids)
			}
			var bucket map[string]json.RawMessage
			if err := json.Unmarshal(raw, &bucket); err != nil {
				t.Fatalf("unmarshal bucket: %v", err)
			}
			if len(bucket) != 2 {
				t.Errorf("bucket size = %d, want 2", len(bucket))
			}
		})
	}
}

func TestRemoveSubtree(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Set(ctx, "r/x", "doc"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := db.Set(ctx, "r/x/deep", "leaf"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := db.Remove(ctx, "r/x"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			ok, err := db.Exists(ctx, "r/x")
			if err != nil || ok {
				t.Errorf("Exists after Remove = %v, %v", ok, err)
			}
			var out any
			if err := db.Get(ctx, "r/x/deep", &out); err != ErrNotFound {
				t.Errorf("deep child survived: %v", err)
			}
		})
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Remove(ctx, "never/was"); err != nil {
				t.Errorf("Remove missing: %v", err)
			}
		})
	}
}
