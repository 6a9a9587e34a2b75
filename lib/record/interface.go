package record

import "time"

// --------------------------------------------------------------------------
// Record Contract
// --------------------------------------------------------------------------

// Record is the contract every persisted entity satisfies. The store owns the
// identity and timestamp attributes: id is assigned on first save and never
// changes, createTime is set exactly once and updateTime on every successful
// write. TenantID partitions storage for tenant-scoped types, Parent is the
// back-reference from a nested record to its owner (0 = no owner).
type Record interface {
	// ID returns the store-assigned identifier (0 = not yet persisted).
	ID() int64
	// SetID assigns the identifier. Called by the store, not by application code.
	SetID(id int64)

	// TypeID returns the record-type discriminator. Each concrete type
	// returns its registered schema type id.
	TypeID() string

	// TenantID returns the tenant the record belongs to ("" = global).
	TenantID() string
	SetTenantID(tenantID string)

	// Parent returns the id of the owning record (0 = none).
	Parent() int64
	SetParent(id int64)

	CreateTime() time.Time
	SetCreateTime(t time.Time)
	UpdateTime() time.Time
	SetUpdateTime(t time.Time)
}

// ClearValue is the reserved sentinel an incoming string field can carry to
// explicitly clear the stored value during merge-on-update. A plain empty
// string means "absent" and keeps the stored value.
const ClearValue = "@clear@"

// --------------------------------------------------------------------------
// Base Record
// --------------------------------------------------------------------------

// Base implements every Record method except TypeID and is meant to be
// embedded by concrete record types.
type Base struct {
	id         int64
	tenantID   string
	parent     int64
	createTime time.Time
	updateTime time.Time
}

func (b *Base) ID() int64                  { return b.id }
func (b *Base) SetID(id int64)             { b.id = id }
func (b *Base) TenantID() string           { return b.tenantID }
func (b *Base) SetTenantID(tenantID string) { b.tenantID = tenantID }
func (b *Base) Parent() int64              { return b.parent }
func (b *Base) SetParent(id int64)         { b.parent = id }
func (b *Base) CreateTime() time.Time      { return b.createTime }
func (b *Base) SetCreateTime(t time.Time)  { b.createTime = t }
func (b *Base) UpdateTime() time.Time      { return b.updateTime }
func (b *Base) SetUpdateTime(t time.Time)  { b.updateTime = t }
