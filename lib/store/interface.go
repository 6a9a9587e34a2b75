package store

import (
	"fmt"

	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/lib/record"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IDocStore is the facade over the whole engine: typed records go in, get
// flattened, indexed and persisted per namespace, and come back out through
// searches. All errors returned by implementations are of type *Error.
type IDocStore interface {
	// Create persists a new record. A zero id is assigned from the type's
	// sequence; a non-zero id is kept as given.
	Create(rec record.Record) error
	// Update replaces the stored record with the given id, merging fields:
	// an empty incoming field keeps the stored value, the clear sentinel
	// (record.ClearValue) empties it.
	Update(rec record.Record) error
	// Save is the upsert: records without an id are created, records with
	// an id are updated (or created with that id when nothing is stored).
	Save(rec record.Record) error
	// SaveAll saves many records, stopping at the first failure.
	SaveAll(recs ...record.Record) error
	// Delete removes the record and, transitively, every nested record it
	// owns.
	Delete(typeID, tenantID string, id int64) error
	// DeleteAll removes many records by id, stopping at the first failure.
	DeleteAll(typeID, tenantID string, ids ...int64) error
	// GetByID loads one record by id. The boolean indicates whether it was
	// found.
	GetByID(typeID, tenantID string, id int64) (record.Record, bool, error)
	// Get runs a search and returns one page of typed records.
	Get(typeID, tenantID string, spec query.Spec) (*query.Page, error)
	// GetOne returns the single best hit for a search, if any.
	GetOne(typeID, tenantID string, spec query.Spec) (record.Record, bool, error)
	// GetAllForField returns every record whose field exactly matches the
	// value.
	GetAllForField(typeID, tenantID, field, value string) ([]record.Record, error)
	// Stats returns the index statistics of the namespace.
	Stats(typeID, tenantID string) (index.Stats, error)
	// Halt rejects all further writes while reads keep working. Used as the
	// first phase of shutdown.
	Halt()
	// Close halts, drains in-flight writes and releases all namespaces.
	Close() error
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("DocStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new Error with the given code and formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess             RetCode = iota // 0: Command executed successfully.
	RetCInternalError                      // 1: Command failed due to an internal error.
	RetCInvalidRecord                      // 2: Record is malformed (unknown type, missing tenant, ...).
	RetCNotFound                           // 3: No record stored for the given id.
	RetCPersistFailure                     // 4: Write could not be committed to the index.
	RetCSearchFailure                      // 5: Search could not be executed.
	RetCLockRecoveryFailure                // 6: Namespace writer could not be (re)acquired.
	RetCHalted                             // 7: Store is halted, writes are rejected.
)

// String returns the symbolic name of the return code.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "RetCSuccess"
	case RetCInternalError:
		return "RetCInternalError"
	case RetCInvalidRecord:
		return "RetCInvalidRecord"
	case RetCNotFound:
		return "RetCNotFound"
	case RetCPersistFailure:
		return "RetCPersistFailure"
	case RetCSearchFailure:
		return "RetCSearchFailure"
	case RetCLockRecoveryFailure:
		return "RetCLockRecoveryFailure"
	case RetCHalted:
		return "RetCHalted"
	default:
		return "Unknown"
	}
}
