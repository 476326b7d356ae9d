package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/posched/core/solver"
)

func TestJSONLStoreAppendQuery(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "progress.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for i, run := range []string{"a", "b", "a"} {
		if err := store.Append(ctx, Record{RunID: run, Iteration: i + 1, Timestamp: time.Now(), Objective: int64(10 - i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(ctx, Query{RunID: "a"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[1].Objective != 8 {
		t.Fatalf("unexpected records %+v", out)
	}
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := Record{RunID: "r", Timestamp: time.Now()}
	for i := 0; i < 100; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 100 {
		t.Fatalf("expected 100 records, got %d", len(out))
	}
}

func TestSQLiteStorePersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:progress.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	rec := Record{RunID: "run-1", Iteration: 1, Timestamp: time.Now(), ElapsedMS: 12, Objective: 7, Bound: 3}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(ctx, Query{RunID: "run-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Objective != 7 || out[0].Bound != 3 || out[0].ElapsedMS != 12 {
		t.Fatalf("unexpected records %+v", out)
	}
}

type failingStore struct{ NopStore }

func (failingStore) Append(context.Context, Record) error { return errors.New("disk full") }

func TestRecorderSwallowsErrors(t *testing.T) {
	rec := Recorder(context.Background(), failingStore{}, "r", nil)
	rec(solver.Progress{Iteration: 1, Elapsed: time.Second, Objective: 3})
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	for _, b := range []string{"", "none", "jsonl", "rotating", "sqlite"} {
		s, err := Open(Options{Backend: b, Path: filepath.Join(dir, "p-"+b+".log"), MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("backend %q: %v", b, err)
		}
		_ = s.Close()
	}
	if _, err := Open(Options{Backend: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
