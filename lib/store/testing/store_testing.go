// Package testing provides a reusable conformance suite for IDocStore
// implementations, mirroring how the engine is exercised end to end: typed
// records in, searches out.
package testing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/lib/record"
	"github.com/croftdb/croft/lib/store"
)

// StoreFactory opens a store rooted at the given directory. The suite calls
// it multiple times on the same root to test restart behavior.
type StoreFactory func(t *testing.T, root string) store.IDocStore

// RunDocStoreTests runs the full conformance suite against the factory.
func RunDocStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("CreateAndGet", func(t *testing.T) {
			testCreateAndGet(t, factory(t, t.TempDir()))
		})

		t.Run("SaveMerge", func(t *testing.T) {
			testSaveMerge(t, factory(t, t.TempDir()))
		})

		t.Run("IDSequence", func(t *testing.T) {
			testIDSequence(t, factory(t, t.TempDir()))
		})

		t.Run("TenantIsolation", func(t *testing.T) {
			testTenantIsolation(t, factory(t, t.TempDir()))
		})

		t.Run("TextSearch", func(t *testing.T) {
			testTextSearch(t, factory(t, t.TempDir()))
		})

		t.Run("FilterAndRange", func(t *testing.T) {
			testFilterAndRange(t, factory(t, t.TempDir()))
		})

		t.Run("SortAndPaging", func(t *testing.T) {
			testSortAndPaging(t, factory(t, t.TempDir()))
		})

		t.Run("NestedRecords", func(t *testing.T) {
			testNestedRecords(t, factory(t, t.TempDir()))
		})

		t.Run("CascadeDelete", func(t *testing.T) {
			testCascadeDelete(t, factory(t, t.TempDir()))
		})

		t.Run("Halt", func(t *testing.T) {
			testHalt(t, factory(t, t.TempDir()))
		})

		t.Run("Stats", func(t *testing.T) {
			testStats(t, factory(t, t.TempDir()))
		})

		t.Run("SequenceBootstrap", func(t *testing.T) {
			testSequenceBootstrap(t, factory)
		})

		t.Run("StaleLockRecovery", func(t *testing.T) {
			testStaleLockRecovery(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

const tenant = "acme"

func testCreateAndGet(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{
		Name:   "rotor",
		Color:  "red",
		Amount: 7,
		Price:  12.5,
		Active: true,
		Tags:   []string{"spare", "metal"},
	}
	w.SetTenantID(tenant)

	if err := s.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if w.ID() == 0 {
		t.Fatalf("Create did not assign an id")
	}
	if w.CreateTime().IsZero() || w.UpdateTime().IsZero() {
		t.Errorf("Create did not stamp timestamps")
	}

	got, found, err := s.GetByID("widget", tenant, w.ID())
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !found {
		t.Fatalf("Record %d not found after Create", w.ID())
	}
	loaded := got.(*Widget)
	if loaded.Name != "rotor" || loaded.Color != "red" {
		t.Errorf("Expected name=rotor color=red, got name=%s color=%s", loaded.Name, loaded.Color)
	}
	if loaded.Amount != 7 {
		t.Errorf("Expected amount 7, got %d", loaded.Amount)
	}
	if loaded.Price != 12.5 {
		t.Errorf("Expected price 12.5, got %v", loaded.Price)
	}
	if !loaded.Active {
		t.Errorf("Expected active=true")
	}
	if len(loaded.Tags) != 2 || loaded.Tags[0] != "spare" || loaded.Tags[1] != "metal" {
		t.Errorf("Expected tags [spare metal], got %v", loaded.Tags)
	}
}

func testSaveMerge(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{Name: "rotor", Color: "red", Amount: 7}
	w.SetTenantID(tenant)
	if err := s.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// a sparse update carries the stored fields forward
	upd := &Widget{Color: "blue"}
	upd.SetID(w.ID())
	upd.SetTenantID(tenant)
	if err := s.Save(upd); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, _, err := s.GetByID("widget", tenant, w.ID())
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	loaded := got.(*Widget)
	if loaded.Color != "blue" {
		t.Errorf("Expected updated color blue, got %s", loaded.Color)
	}
	if loaded.Name != "rotor" {
		t.Errorf("Expected name carried forward, got %q", loaded.Name)
	}
	if loaded.Amount != 7 {
		t.Errorf("Expected amount carried forward, got %d", loaded.Amount)
	}
	// stored timestamps have millisecond precision
	if loaded.CreateTime().UnixMilli() != w.CreateTime().UnixMilli() {
		t.Errorf("Expected create time preserved on update")
	}

	// the sentinel clears a stored field for good
	clr := &Widget{Name: record.ClearValue}
	clr.SetID(w.ID())
	clr.SetTenantID(tenant)
	if err := s.Save(clr); err != nil {
		t.Fatalf("Save with clear sentinel failed: %v", err)
	}
	got, _, _ = s.GetByID("widget", tenant, w.ID())
	if got.(*Widget).Name != "" {
		t.Errorf("Expected name cleared, got %q", got.(*Widget).Name)
	}
	if got.(*Widget).Color != "blue" {
		t.Errorf("Expected color untouched by clear, got %q", got.(*Widget).Color)
	}
}

func testIDSequence(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	var last int64
	for i, tn := range []string{"acme", "globex", "acme", "initech"} {
		w := &Widget{Name: fmt.Sprintf("w%d", i)}
		w.SetTenantID(tn)
		if err := s.Create(w); err != nil {
			t.Fatalf("Create for tenant %s failed: %v", tn, err)
		}
		if w.ID() <= last {
			t.Errorf("Expected ids to increase across tenants, got %d after %d", w.ID(), last)
		}
		last = w.ID()
	}
}

func testTenantIsolation(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{Name: "secret"}
	w.SetTenantID("acme")
	if err := s.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, found, err := s.GetByID("widget", "globex", w.ID()); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	} else if found {
		t.Errorf("Record visible from another tenant")
	}

	page, err := s.Get("widget", "globex", query.Spec{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if page.TotalHits != 0 {
		t.Errorf("Expected empty result for other tenant, got %d hits", page.TotalHits)
	}
}

func testTextSearch(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	for _, name := range []string{"steel rotor", "brass fitting", "steel-brace"} {
		w := &Widget{Name: name}
		w.SetTenantID(tenant)
		if err := s.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := s.Get("widget", tenant, query.Spec{Text: "steel"})
	if err != nil {
		t.Fatalf("Text search failed: %v", err)
	}
	if page.TotalHits != 2 {
		t.Errorf("Expected 2 hits for 'steel', got %d", page.TotalHits)
	}

	// hyphenated query terms match their parts
	page, err = s.Get("widget", tenant, query.Spec{Text: "steel-brace"})
	if err != nil {
		t.Fatalf("Text search failed: %v", err)
	}
	if page.TotalHits == 0 {
		t.Errorf("Expected hits for hyphenated text")
	}

	// a wildcard value in a field filter matches through the contents field
	page, err = s.Get("widget", tenant, query.Spec{
		Filters: []query.Filter{{Field: "name", Value: "rot*"}},
	})
	if err != nil {
		t.Fatalf("Wildcard filter failed: %v", err)
	}
	if page.TotalHits != 1 {
		t.Errorf("Expected 1 hit for wildcard filter, got %d", page.TotalHits)
	}

	// a multi-word filter against the contents field is analyzed, not exact
	page, err = s.Get("widget", tenant, query.Spec{
		Filters: []query.Filter{{Field: record.FieldContents, Value: "steel rotor"}},
	})
	if err != nil {
		t.Fatalf("Contents filter failed: %v", err)
	}
	if page.TotalHits == 0 {
		t.Errorf("Expected hits for multi-word contents filter")
	}
}

func testFilterAndRange(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	for i, amount := range []int64{0, 10, 20, 30, 40} {
		w := &Widget{Name: fmt.Sprintf("w%d", i), Color: "red", Amount: amount}
		if amount == 20 {
			w.Color = "blue"
		}
		w.SetTenantID(tenant)
		if err := s.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := s.Get("widget", tenant, query.Spec{
		Filters: []query.Filter{{Field: "color", Value: "blue"}},
	})
	if err != nil {
		t.Fatalf("Filter search failed: %v", err)
	}
	if page.TotalHits != 1 {
		t.Errorf("Expected 1 blue widget, got %d", page.TotalHits)
	}

	page, err = s.Get("widget", tenant, query.Spec{
		Filters: []query.Filter{{Field: "amount", Value: "30"}},
	})
	if err != nil {
		t.Fatalf("Numeric filter failed: %v", err)
	}
	if page.TotalHits != 1 {
		t.Errorf("Expected 1 widget with amount 30, got %d", page.TotalHits)
	}

	page, err = s.Get("widget", tenant, query.Spec{
		Ranges: []query.Range{{Field: "amount", Min: "10", Max: "30", Numeric: true}},
	})
	if err != nil {
		t.Fatalf("Range search failed: %v", err)
	}
	if page.TotalHits != 3 {
		t.Errorf("Expected 3 widgets in [10,30], got %d", page.TotalHits)
	}

	page, err = s.Get("widget", tenant, query.Spec{
		Ranges: []query.Range{{Field: "amount", Min: "15", Numeric: true}},
	})
	if err != nil {
		t.Fatalf("Open range search failed: %v", err)
	}
	if page.TotalHits != 3 {
		t.Errorf("Expected 3 widgets >= 15, got %d", page.TotalHits)
	}
}

func testSortAndPaging(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	for i := 1; i <= 25; i++ {
		w := &Widget{Name: fmt.Sprintf("w%d", i), Amount: int64(i * 10)}
		w.SetTenantID(tenant)
		if err := s.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := s.Get("widget", tenant, query.Spec{
		Limit: 10,
		Sort:  &query.Sort{Field: "amount", Type: query.SortLong},
	})
	if err != nil {
		t.Fatalf("Sorted search failed: %v", err)
	}
	if page.TotalHits != 25 || page.TotalPages != 3 {
		t.Errorf("Expected 25 hits / 3 pages, got %d / %d", page.TotalHits, page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Fatalf("Expected 10 items on page 1, got %d", len(page.Items))
	}
	if top := page.Items[0].(*Widget).Amount; top != 250 {
		t.Errorf("Expected descending sort, top amount 250, got %d", top)
	}

	asc, err := s.Get("widget", tenant, query.Spec{
		Page:  3,
		Limit: 10,
		Sort:  &query.Sort{Field: "amount", Type: query.SortLong, Ascending: true},
	})
	if err != nil {
		t.Fatalf("Paged search failed: %v", err)
	}
	if len(asc.Items) != 5 {
		t.Errorf("Expected 5 items on the last page, got %d", len(asc.Items))
	}
	if len(asc.Items) > 0 {
		if first := asc.Items[0].(*Widget).Amount; first != 210 {
			t.Errorf("Expected page 3 ascending to start at 210, got %d", first)
		}
	}

	all, err := s.Get("widget", tenant, query.Spec{FetchAll: true})
	if err != nil {
		t.Fatalf("Fetch-all failed: %v", err)
	}
	if len(all.Items) != 25 {
		t.Errorf("Expected all 25 items, got %d", len(all.Items))
	}

	// fetch-all still windows the items when page and limit are supplied
	win, err := s.Get("widget", tenant, query.Spec{FetchAll: true, Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("Windowed fetch-all failed: %v", err)
	}
	if len(win.Items) != 10 {
		t.Errorf("Expected 10 items in the page window, got %d", len(win.Items))
	}
	if win.TotalHits != 25 || win.TotalPages != 3 || win.Number != 2 {
		t.Errorf("Expected 25 hits / 3 pages / page 2, got %d / %d / %d",
			win.TotalHits, win.TotalPages, win.Number)
	}

	// sort on the system create_time field, both directions
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		w := &Widget{Name: fmt.Sprintf("t%d", i)}
		w.SetTenantID("chrono")
		w.SetCreateTime(base.Add(time.Duration(i) * time.Minute))
		if err := s.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	desc, err := s.Get("widget", "chrono", query.Spec{
		Limit: 5,
		Sort:  &query.Sort{Field: record.FieldCreateTime, Type: query.SortLong},
	})
	if err != nil {
		t.Fatalf("Descending createTime sort failed: %v", err)
	}
	if len(desc.Items) != 5 {
		t.Fatalf("Expected 5 items, got %d", len(desc.Items))
	}
	for i := 1; i < len(desc.Items); i++ {
		if !desc.Items[i].CreateTime().Before(desc.Items[i-1].CreateTime()) {
			t.Errorf("Expected strictly decreasing create times, got %v before %v",
				desc.Items[i-1].CreateTime(), desc.Items[i].CreateTime())
		}
	}
	up, err := s.Get("widget", "chrono", query.Spec{
		Limit: 5,
		Sort:  &query.Sort{Field: record.FieldCreateTime, Type: query.SortLong, Ascending: true},
	})
	if err != nil {
		t.Fatalf("Ascending createTime sort failed: %v", err)
	}
	for i := 1; i < len(up.Items); i++ {
		if !up.Items[i].CreateTime().After(up.Items[i-1].CreateTime()) {
			t.Errorf("Expected strictly increasing create times, got %v before %v",
				up.Items[i-1].CreateTime(), up.Items[i].CreateTime())
		}
	}
}

func testNestedRecords(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{
		Name:  "gearbox",
		Drive: &Gear{Label: "main", Teeth: 42},
	}
	w.SetTenantID(tenant)
	if err := s.Create(w); err != nil {
		t.Fatalf("Create with nested record failed: %v", err)
	}
	if w.Drive.ID() == 0 {
		t.Fatalf("Nested record was not assigned an id")
	}

	got, found, err := s.GetByID("widget", tenant, w.ID())
	if err != nil || !found {
		t.Fatalf("GetByID failed: found=%v err=%v", found, err)
	}
	loaded := got.(*Widget)
	if loaded.Drive == nil {
		t.Fatalf("Nested record not loaded")
	}
	if loaded.Drive.Label != "main" || loaded.Drive.Teeth != 42 {
		t.Errorf("Expected nested gear main/42, got %s/%d", loaded.Drive.Label, loaded.Drive.Teeth)
	}
	if loaded.Drive.Parent() != w.ID() {
		t.Errorf("Expected nested record parent %d, got %d", w.ID(), loaded.Drive.Parent())
	}

	wl := &Widget{
		Name:  "geartrain",
		Gears: []record.Record{&Gear{Label: "a", Teeth: 10}, &Gear{Label: "b", Teeth: 20}},
	}
	wl.SetTenantID(tenant)
	if err := s.Create(wl); err != nil {
		t.Fatalf("Create with nested collection failed: %v", err)
	}
	got, found, err = s.GetByID("widget", tenant, wl.ID())
	if err != nil || !found {
		t.Fatalf("GetByID failed: found=%v err=%v", found, err)
	}
	if n := len(got.(*Widget).Gears); n != 2 {
		t.Errorf("Expected 2 nested gears, got %d", n)
	}
}

func testCascadeDelete(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{
		Name:  "gearbox",
		Drive: &Gear{Label: "main", Teeth: 42},
	}
	w.SetTenantID(tenant)
	if err := s.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	gearID := w.Drive.ID()

	if err := s.Delete("widget", tenant, w.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, found, _ := s.GetByID("widget", tenant, w.ID()); found {
		t.Errorf("Widget still stored after Delete")
	}
	if _, found, _ := s.GetByID("gear", tenant, gearID); found {
		t.Errorf("Nested gear still stored after cascading Delete")
	}
}

func testHalt(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	w := &Widget{Name: "before"}
	w.SetTenantID(tenant)
	if err := s.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	s.Halt()

	after := &Widget{Name: "after"}
	after.SetTenantID(tenant)
	err := s.Create(after)
	var serr *store.Error
	if !errors.As(err, &serr) || serr.Code != store.RetCHalted {
		t.Errorf("Expected RetCHalted after Halt, got %v", err)
	}

	// reads keep working while halted
	if _, found, err := s.GetByID("widget", tenant, w.ID()); err != nil || !found {
		t.Errorf("Expected read to work while halted: found=%v err=%v", found, err)
	}
}

func testStats(t *testing.T, s store.IDocStore) {
	t.Cleanup(func() { s.Close() })

	for i := 0; i < 3; i++ {
		w := &Widget{Name: fmt.Sprintf("w%d", i)}
		w.SetTenantID(tenant)
		if err := s.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats, err := s.Stats("widget", tenant)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.DocCount != 3 {
		t.Errorf("Expected doc count 3, got %d", stats.DocCount)
	}
	if stats.TotalIndexTimeMs < 0 {
		t.Errorf("Expected non-negative total index time, got %d", stats.TotalIndexTimeMs)
	}

	metas, err := s.GetAllForField(store.MetaTypeID, "", "type_ref", "widget")
	if err != nil {
		t.Fatalf("Loading metadata failed: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("Expected 1 metadata record for widget, got %d", len(metas))
	}
	if dc := metas[0].(*store.Meta).DocCount; dc != 3 {
		t.Errorf("Expected persisted doc count 3, got %d", dc)
	}
}

func testSequenceBootstrap(t *testing.T, factory StoreFactory) {
	root := t.TempDir()

	s1 := factory(t, root)
	var maxID int64
	for i := 0; i < 3; i++ {
		w := &Widget{Name: fmt.Sprintf("w%d", i)}
		w.SetTenantID(tenant)
		if err := s1.Create(w); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		maxID = w.ID()
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2 := factory(t, root)
	t.Cleanup(func() { s2.Close() })
	w := &Widget{Name: "reopened"}
	w.SetTenantID(tenant)
	if err := s2.Create(w); err != nil {
		t.Fatalf("Create after reopen failed: %v", err)
	}
	if w.ID() <= maxID {
		t.Errorf("Expected id above %d after reopen, got %d", maxID, w.ID())
	}
}

func testStaleLockRecovery(t *testing.T, factory StoreFactory) {
	root := t.TempDir()

	s1 := factory(t, root)
	w := &Widget{Name: "first"}
	w.SetTenantID(tenant)
	if err := s1.Create(w); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// simulate a crash that left the write lock behind
	lock := filepath.Join(root, tenant, "widget", "write.lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatalf("Planting stale lock failed: %v", err)
	}

	s2 := factory(t, root)
	t.Cleanup(func() { s2.Close() })
	w2 := &Widget{Name: "second"}
	w2.SetTenantID(tenant)
	if err := s2.Create(w2); err != nil {
		t.Fatalf("Create after stale lock failed: %v", err)
	}
	if _, found, err := s2.GetByID("widget", tenant, w2.ID()); err != nil || !found {
		t.Errorf("Expected record stored after lock recovery: found=%v err=%v", found, err)
	}
}
