package common

import (
	"encoding/json"
	"fmt"

	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/query"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message. Records travel as
// schema-encoded JSON payloads so the wire format is serializer-independent.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Addressing fields, set on every request
	TypeID   string `json:"type_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	ID       int64  `json:"id,omitempty"` // Used for: Get, Delete

	// Payload fields
	Record  []byte      `json:"record,omitempty"`  // Used for: Save (request), Get (response)
	Records [][]byte    `json:"records,omitempty"` // Used for: Search (response)
	Spec    *query.Spec `json:"spec,omitempty"`    // Used for: Search (request)

	// Response only fields
	Found bool         `json:"found,omitempty"` // Used for: Get, Save responses
	Total int          `json:"total,omitempty"` // Used for: Search responses
	Pages int          `json:"pages,omitempty"` // Used for: Search responses
	Stats *index.Stats `json:"stats,omitempty"` // Used for: Stats responses
	Err   string       `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSaveRequest creates a new Save request. The record payload is the
// schema-encoded JSON form of the record.
func NewSaveRequest(typeID, tenantID string, rec []byte) *Message {
	return &Message{
		MsgType:  MsgTDocSave,
		TypeID:   typeID,
		TenantID: tenantID,
		Record:   rec,
	}
}

// NewSaveResponse creates a new Save response carrying the assigned id.
func NewSaveResponse(id int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocSave,
		ID:      id,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewGetRequest creates a new Get request
func NewGetRequest(typeID, tenantID string, id int64) *Message {
	return &Message{
		MsgType:  MsgTDocGet,
		TypeID:   typeID,
		TenantID: tenantID,
		ID:       id,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(rec []byte, found bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocGet,
		Record:  rec,
		Found:   found,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(typeID, tenantID string, id int64) *Message {
	return &Message{
		MsgType:  MsgTDocDelete,
		TypeID:   typeID,
		TenantID: tenantID,
		ID:       id,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTDocDelete,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewSearchRequest creates a new Search request
func NewSearchRequest(typeID, tenantID string, spec query.Spec) *Message {
	return &Message{
		MsgType:  MsgTDocSearch,
		TypeID:   typeID,
		TenantID: tenantID,
		Spec:     &spec,
	}
}

// NewSearchResponse creates a new Search response
func NewSearchResponse(records [][]byte, total, pages int, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocSearch,
		Records: records,
		Total:   total,
		Pages:   pages,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewStatsRequest creates a new Stats request
func NewStatsRequest(typeID, tenantID string) *Message {
	return &Message{
		MsgType:  MsgTDocStats,
		TypeID:   typeID,
		TenantID: tenantID,
	}
}

// NewStatsResponse creates a new Stats response
func NewStatsResponse(stats index.Stats, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocStats,
		Stats:   &stats,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTDocSave:
		return "save"
	case MsgTDocGet:
		return "get"
	case MsgTDocDelete:
		return "delete"
	case MsgTDocSearch:
		return "search"
	case MsgTDocStats:
		return "stats"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "save":
		*t = MsgTDocSave
	case "get":
		*t = MsgTDocGet
	case "delete":
		*t = MsgTDocDelete
	case "search":
		*t = MsgTDocSearch
	case "stats":
		*t = MsgTDocStats
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IDocStore operations

	MsgTDocSave   // Save (upsert) a record
	MsgTDocGet    // Load a record by id
	MsgTDocDelete // Delete a record by id (cascading)
	MsgTDocSearch // Run a search spec
	MsgTDocStats  // Namespace statistics

	// Custom operations

	MsgTCustom // Custom operation type
)
