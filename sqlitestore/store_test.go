package sqlitestore

import (
	"path/filepath"
	"reflect"
	"testing"

	pack "github.com/goliatone/go-parampack"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "params.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return st
}

func TestStoreRoundTrip(t *testing.T) {
	st := openTestStore(t)

	if ok, _ := st.Has("a"); ok {
		t.Fatalf("fresh store claims to hold a key")
	}
	if err := st.Set("a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := st.Get("a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("get = %q %v %v", value, ok, err)
	}

	// Upsert keeps a single row per key.
	if err := st.Set("a", "2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = st.Get("a")
	if value != "2" {
		t.Fatalf("overwritten value = %q, want 2", value)
	}

	if err := st.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := st.Has("a"); ok {
		t.Fatalf("deleted key still present")
	}
	if err := st.Delete("a"); err != nil {
		t.Fatalf("deleting an absent key: %v", err)
	}
}

func TestStoreKeysPrefix(t *testing.T) {
	st := openTestStore(t)
	for _, key := range []string{"roi.x", "roi.y", "other.z"} {
		if err := st.Set(key, "v"); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}
	keys, err := st.Keys("roi.")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if want := []string{"roi.x", "roi.y"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	all, err := st.Keys("")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty prefix should return all keys: %v", all)
	}
}

func TestStoreKeysEscapesLikeWildcards(t *testing.T) {
	st := openTestStore(t)
	for _, key := range []string{"a_b.x", "axb.y"} {
		if err := st.Set(key, "v"); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}
	// '_' in the prefix is a LIKE wildcard unless escaped; an unescaped
	// pattern would match "axb.y" too.
	keys, err := st.Keys("a_b.")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if want := []string{"a_b.x"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestStoreBatchCommits(t *testing.T) {
	st := openTestStore(t)

	end := st.BeginBatch()
	if err := st.Set("a", "1"); err != nil {
		t.Fatalf("set in batch: %v", err)
	}
	inner := st.BeginBatch()
	if err := st.Set("b", "2"); err != nil {
		t.Fatalf("set in nested batch: %v", err)
	}
	inner()
	end()

	keys, err := st.Keys("")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("batched writes not committed: %v", keys)
	}
}

func TestStoreBacksObservedPack(t *testing.T) {
	st := openTestStore(t)

	point, err := pack.NewType("Point", []pack.Field{
		{Name: "x", Type: pack.Float()},
		{Name: "y", Type: pack.Float()},
	})
	if err != nil {
		t.Fatalf("building type: %v", err)
	}

	p, err := pack.Observe(point, st, "origin")
	if err != nil {
		t.Fatalf("observing: %v", err)
	}
	if err := p.Set("x", 3.5); err != nil {
		t.Fatalf("setting: %v", err)
	}

	value, ok, err := st.Get("origin.x")
	if err != nil || !ok || value != "3.5" {
		t.Fatalf("persisted origin.x = %q %v %v", value, ok, err)
	}

	// A second binding against the same database sees the state.
	again, err := pack.Observe(point, st, "origin")
	if err != nil {
		t.Fatalf("rebinding: %v", err)
	}
	if got := again.MustGet("x").(float64); got != 3.5 {
		t.Fatalf("rebound x = %v, want 3.5", got)
	}
}
