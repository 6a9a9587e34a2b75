package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/namespace"
)

func testNamespace(t *testing.T) namespace.Namespace {
	t.Helper()
	root := t.TempDir()
	return namespace.Namespace{
		TypeID: "widget",
		Path:   filepath.Join(root, "widget"),
		Key:    "widget",
	}
}

func testDoc(id string, name string) document.Document {
	return document.Document{
		"id":      document.String(id),
		"type_id": document.String("widget"),
		"name":    document.String(name),
	}
}

func search(t *testing.T, idx bleve.Index, field, term string) int {
	t.Helper()
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	res, err := idx.Search(bleve.NewSearchRequest(q))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	return int(res.Total)
}

func TestIndexAndRead(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	if err := mgr.Index(ns, testDoc("1", "rotor"), testDoc("2", "stator")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	idx, ok, err := mgr.Reader(ns)
	if err != nil || !ok {
		t.Fatalf("Reader failed: ok=%v err=%v", ok, err)
	}
	if n := search(t, idx, "name", "rotor"); n != 1 {
		t.Errorf("Expected 1 hit for rotor, got %d", n)
	}

	stats := mgr.Stats(ns)
	if stats.DocCount != 2 {
		t.Errorf("Expected 2 docs, got %d", stats.DocCount)
	}
}

func TestUpdateReplacesDocument(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	if err := mgr.Index(ns, testDoc("1", "rotor")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := mgr.Update(ns, testDoc("1", "stator")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	idx, _, _ := mgr.Reader(ns)
	if n := search(t, idx, "name", "rotor"); n != 0 {
		t.Errorf("Expected old document gone, got %d hits", n)
	}
	if n := search(t, idx, "name", "stator"); n != 1 {
		t.Errorf("Expected 1 hit for replacement, got %d", n)
	}
	if stats := mgr.Stats(ns); stats.DocCount != 1 {
		t.Errorf("Expected 1 doc after update, got %d", stats.DocCount)
	}
}

func TestDelete(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	if err := mgr.Index(ns, testDoc("1", "rotor"), testDoc("2", "stator")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := mgr.Delete(ns, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if stats := mgr.Stats(ns); stats.DocCount != 1 {
		t.Errorf("Expected 1 doc after delete, got %d", stats.DocCount)
	}
}

func TestReaderOnUnknownNamespace(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	_, ok, err := mgr.Reader(ns)
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	if ok {
		t.Errorf("Expected no handle for a namespace that was never written")
	}
}

func TestHaltRejectsMutations(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	if err := mgr.Index(ns, testDoc("1", "rotor")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	mgr.Halt()

	if err := mgr.Index(ns, testDoc("2", "stator")); err != ErrHalted {
		t.Errorf("Expected ErrHalted, got %v", err)
	}
	// internal writes still drain
	if err := mgr.IndexInternal(ns, testDoc("3", "meta")); err != nil {
		t.Errorf("Expected internal write to pass while halted, got %v", err)
	}
}

func TestStaleLockIsCleared(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	if err := mgr.Index(ns, testDoc("1", "rotor")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// simulate a crashed process leaving its lock behind
	if err := os.WriteFile(filepath.Join(ns.Path, lockFileName), nil, 0o644); err != nil {
		t.Fatalf("Planting lock failed: %v", err)
	}

	mgr2 := NewManager(nil)
	t.Cleanup(func() { mgr2.Close() })
	if err := mgr2.Index(ns, testDoc("2", "stator")); err != nil {
		t.Fatalf("Index after stale lock failed: %v", err)
	}
	if stats := mgr2.Stats(ns); stats.DocCount != 2 {
		t.Errorf("Expected 2 docs after recovery, got %d", stats.DocCount)
	}
}

func TestVanishedLockReopens(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	if err := mgr.Index(ns, testDoc("1", "rotor")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := os.Remove(filepath.Join(ns.Path, lockFileName)); err != nil {
		t.Fatalf("Removing lock failed: %v", err)
	}
	if err := mgr.Index(ns, testDoc("2", "stator")); err != nil {
		t.Fatalf("Index after vanished lock failed: %v", err)
	}
	if stats := mgr.Stats(ns); stats.DocCount != 2 {
		t.Errorf("Expected 2 docs after reopen, got %d", stats.DocCount)
	}
}

func TestStatsSinkReceivesUpdates(t *testing.T) {
	ns := testNamespace(t)
	mgr := NewManager(nil)
	t.Cleanup(func() { mgr.Close() })

	var got []Stats
	mgr.SetStatsSink(statsSinkFunc(func(_ namespace.Namespace, stats Stats) {
		got = append(got, stats)
	}))

	if err := mgr.Index(ns, testDoc("1", "rotor")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(got) != 1 || got[0].DocCount != 1 {
		t.Errorf("Expected one stats callback with doc count 1, got %+v", got)
	}
}

type statsSinkFunc func(ns namespace.Namespace, stats Stats)

func (f statsSinkFunc) RecordStats(ns namespace.Namespace, stats Stats) { f(ns, stats) }
