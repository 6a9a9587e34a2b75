package namespace

import (
	"fmt"
	"path/filepath"

	"github.com/croftdb/croft/lib/record"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Namespace
// --------------------------------------------------------------------------

// Namespace is the unit of physical storage: one (record type, tenant)
// partition backed by one on-disk index and one write lock. Key is the
// synchronization key the indexer serializes writes on.
type Namespace struct {
	// TypeID is the record type stored in this namespace.
	TypeID string
	// TenantID is the owning tenant ("" for global / non-tenant-scoped types).
	TenantID string
	// Path is the index directory: <root>/<tenantID?>/<typeID>.
	Path string
	// Key is "tenantID:typeID" for tenant-scoped types, else just typeID.
	Key string
}

// --------------------------------------------------------------------------
// Resolver
// --------------------------------------------------------------------------

// Resolver deterministically maps a (record type, tenant) pair to its
// namespace. Resolution is pure; results are cached by key.
type Resolver struct {
	root     string
	registry *record.Registry
	cache    *xsync.MapOf[string, Namespace]
}

// NewResolver creates a resolver rooted at the given index directory.
func NewResolver(root string, registry *record.Registry) *Resolver {
	return &Resolver{
		root:     root,
		registry: registry,
		cache:    xsync.NewMapOf[string, Namespace](),
	}
}

// Root returns the filesystem root all namespaces live under.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the namespace for a record type and tenant. For types that
// are not tenant-scoped the tenant id is ignored and the global namespace is
// returned. The only error conditions are an empty or unregistered type id.
//
// Thread-safety: This method is safe for concurrent use.
func (r *Resolver) Resolve(typeID, tenantID string) (Namespace, error) {
	if typeID == "" {
		return Namespace{}, fmt.Errorf("namespace: empty record type")
	}

	schema, ok := r.registry.Lookup(typeID)
	if !ok {
		return Namespace{}, fmt.Errorf("namespace: unknown record type %q", typeID)
	}
	if !schema.TenantScoped {
		tenantID = ""
	}

	key := typeID
	if tenantID != "" {
		key = tenantID + ":" + typeID
	}

	if ns, ok := r.cache.Load(key); ok {
		return ns, nil
	}

	path := filepath.Join(r.root, typeID)
	if tenantID != "" {
		path = filepath.Join(r.root, tenantID, typeID)
	}

	ns := Namespace{
		TypeID:   typeID,
		TenantID: tenantID,
		Path:     path,
		Key:      key,
	}
	r.cache.Store(key, ns)
	return ns, nil
}
