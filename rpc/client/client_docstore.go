package client

import (
	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/rpc/common"
	"github.com/croftdb/croft/rpc/serializer"
	"github.com/croftdb/croft/rpc/transport"
)

// IRemoteDocStore is the wire-level client view of the document store.
// Records travel as schema-encoded JSON payloads, so the client does not
// need the schema registry of the server.
type IRemoteDocStore interface {
	// Save upserts a record and returns the id assigned by the server
	Save(typeID, tenantID string, rec []byte) (int64, error)
	// Get loads a record by id. The boolean indicates whether it was found
	Get(typeID, tenantID string, id int64) ([]byte, bool, error)
	// Delete removes a record and all nested records it owns
	Delete(typeID, tenantID string, id int64) error
	// Search runs a search spec and returns one page of records plus the
	// total hit and page counts
	Search(typeID, tenantID string, spec query.Spec) (records [][]byte, total, pages int, err error)
	// Stats returns the index statistics of the type's namespace
	Stats(typeID, tenantID string) (index.Stats, error)
	// Close closes the underlying transport
	Close() error
}

// NewRemoteDocStore creates a new RPC document store client
// The function takes a config, a transport and a serializer as parameters
func NewRemoteDocStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IRemoteDocStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := remoteDocStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type remoteDocStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IRemoteDocStore)
// --------------------------------------------------------------------------

func (c *remoteDocStore) Save(typeID, tenantID string, rec []byte) (int64, error) {
	req := common.NewSaveRequest(typeID, tenantID, rec)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *remoteDocStore) Get(typeID, tenantID string, id int64) ([]byte, bool, error) {
	req := common.NewGetRequest(typeID, tenantID, id)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return nil, false, err
	}
	return resp.Record, resp.Found, nil
}

func (c *remoteDocStore) Delete(typeID, tenantID string, id int64) error {
	req := common.NewDeleteRequest(typeID, tenantID, id)
	_, err := invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *remoteDocStore) Search(typeID, tenantID string, spec query.Spec) ([][]byte, int, int, error) {
	req := common.NewSearchRequest(typeID, tenantID, spec)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return nil, 0, 0, err
	}
	return resp.Records, resp.Total, resp.Pages, nil
}

func (c *remoteDocStore) Stats(typeID, tenantID string) (index.Stats, error) {
	req := common.NewStatsRequest(typeID, tenantID)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return index.Stats{}, err
	}
	if resp.Stats == nil {
		return index.Stats{}, nil
	}
	return *resp.Stats, nil
}

func (c *remoteDocStore) Close() error {
	return c.transport.Close()
}
