package namespace

import (
	"path/filepath"
	"testing"

	"github.com/croftdb/croft/lib/record"
)

func testRegistry(t *testing.T) *record.Registry {
	t.Helper()
	reg := record.NewRegistry()
	if err := reg.Register(record.GenericSchema("widget", true, nil)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(record.GenericSchema("settings", false, nil)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg
}

func TestResolveTenantScoped(t *testing.T) {
	r := NewResolver("/data", testRegistry(t))

	ns, err := r.Resolve("widget", "acme")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ns.Key != "acme:widget" {
		t.Errorf("Expected key acme:widget, got %s", ns.Key)
	}
	if ns.Path != filepath.Join("/data", "acme", "widget") {
		t.Errorf("Expected tenant path, got %s", ns.Path)
	}

	other, err := r.Resolve("widget", "globex")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if other.Key == ns.Key || other.Path == ns.Path {
		t.Errorf("Expected distinct namespaces per tenant")
	}
}

func TestResolveGlobal(t *testing.T) {
	r := NewResolver("/data", testRegistry(t))

	ns, err := r.Resolve("settings", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ns.Key != "settings" {
		t.Errorf("Expected key settings, got %s", ns.Key)
	}
	if ns.Path != filepath.Join("/data", "settings") {
		t.Errorf("Expected global path, got %s", ns.Path)
	}

	// the tenant is ignored for types that are not tenant scoped
	withTenant, err := r.Resolve("settings", "acme")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if withTenant.Key != ns.Key || withTenant.Path != ns.Path {
		t.Errorf("Expected tenant to be ignored, got %+v", withTenant)
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver("/data", testRegistry(t))

	if _, err := r.Resolve("", "acme"); err == nil {
		t.Errorf("Expected error for empty type id")
	}
	if _, err := r.Resolve("nope", "acme"); err == nil {
		t.Errorf("Expected error for unknown type id")
	}
}

func TestResolveCaches(t *testing.T) {
	r := NewResolver("/data", testRegistry(t))

	a, _ := r.Resolve("widget", "acme")
	b, _ := r.Resolve("widget", "acme")
	if a != b {
		t.Errorf("Expected identical namespace values from the cache")
	}
}
