package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	s := openTestSQLite(t)

	s.Put("k", testEntry("data:image/png;base64,AAA"))
	e, ok := s.Get("k")
	if !ok {
		t.Fatal("entry missing after Put")
	}
	if e.Src != "data:image/png;base64,AAA" || e.Uses != 1 || e.Prompt != "a mountain lake" {
		t.Errorf("entry mismatch: %+v", e)
	}
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := openTestSQLite(t)
	if _, ok := s.Get("absent"); ok {
		t.Error("Get of absent key should miss")
	}
}

func TestSQLiteStorePutKeepsExisting(t *testing.T) {
	s := openTestSQLite(t)
	s.Put("k", testEntry("first"))
	s.Put("k", testEntry("second"))

	e, _ := s.Get("k")
	if e.Src != "first" {
		t.Errorf("Put overwrote existing row: %q", e.Src)
	}
}

func TestSQLiteStoreTouch(t *testing.T) {
	s := openTestSQLite(t)
	s.Put("k", testEntry("x"))

	if got := s.Touch("k"); got != 2 {
		t.Errorf("Touch = %d, want 2", got)
	}
	if got := s.Touch("absent"); got != 0 {
		t.Errorf("Touch of absent key = %d, want 0", got)
	}

	e, _ := s.Get("k")
	if e.Uses != 2 {
		t.Errorf("uses not persisted: %+v", e)
	}
}

func TestSQLiteStoreDurableWithoutFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Put("k", testEntry("x"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reopened.Get("k"); !ok {
		t.Error("row not durable across reopen")
	}
}
