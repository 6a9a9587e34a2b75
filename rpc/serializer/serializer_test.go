package serializer

import (
	"reflect"
	"testing"

	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Save request
		{
			MsgType:  common.MsgTDocSave,
			TypeID:   "widget",
			TenantID: "acme",
			Record:   []byte(`{"name":"rotor"}`),
		},

		// Get response
		{
			MsgType: common.MsgTDocGet,
			Record:  []byte(`{"id":7,"name":"rotor"}`),
			Found:   true,
		},

		// Search request with a full spec
		{
			MsgType:  common.MsgTDocSearch,
			TypeID:   "widget",
			TenantID: "acme",
			Spec: &query.Spec{
				Page:    2,
				Limit:   25,
				Text:    "rotor",
				Filters: []query.Filter{{Field: "color", Value: "red"}},
				Ranges:  []query.Range{{Field: "amount", Min: "10", Max: "30", Numeric: true}},
				Sort:    &query.Sort{Field: "amount", Type: query.SortLong, Ascending: true},
			},
		},

		// Search response
		{
			MsgType: common.MsgTDocSearch,
			Records: [][]byte{[]byte(`{"id":1}`), []byte(`{"id":2}`)},
			Total:   2,
			Pages:   1,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all addressing fields filled
		{
			MsgType:  common.MsgTDocDelete,
			TypeID:   "widget",
			TenantID: "acme",
			ID:       17,
			Meta:     []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}
