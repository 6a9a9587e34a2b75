package server

import (
	"fmt"

	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/lib/record"
	"github.com/croftdb/croft/lib/store"
	"github.com/croftdb/croft/rpc/common"
)

// NewDocStoreServerAdapter creates an adapter that translates RPC messages
// into store.IDocStore calls. The registry is needed to decode and encode
// the schema-encoded record payloads.
func NewDocStoreServerAdapter(registry *record.Registry) IRPCServerAdapter {
	return &docStoreServerAdapterImpl{registry: registry}
}

type docStoreServerAdapterImpl struct {
	registry *record.Registry
}

func (adapter *docStoreServerAdapterImpl) Handle(req *common.Message, s store.IDocStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTDocSave:
		rec, err := document.UnmarshalRecord(adapter.registry, req.TypeID, req.Record)
		if err != nil {
			return common.NewSaveResponse(0, err)
		}
		if rec.TenantID() == "" {
			rec.SetTenantID(req.TenantID)
		}
		err = s.Save(rec)
		return common.NewSaveResponse(rec.ID(), err)

	case common.MsgTDocGet:
		rec, found, err := s.GetByID(req.TypeID, req.TenantID, req.ID)
		if err != nil || !found {
			return common.NewGetResponse(nil, found, err)
		}
		data, err := document.MarshalRecord(adapter.registry, rec)
		return common.NewGetResponse(data, found, err)

	case common.MsgTDocDelete:
		err := s.Delete(req.TypeID, req.TenantID, req.ID)
		return common.NewDeleteResponse(err)

	case common.MsgTDocSearch:
		spec := query.Spec{}
		if req.Spec != nil {
			spec = *req.Spec
		}
		page, err := s.Get(req.TypeID, req.TenantID, spec)
		if err != nil {
			return common.NewSearchResponse(nil, 0, 0, err)
		}
		records := make([][]byte, 0, len(page.Items))
		for _, item := range page.Items {
			data, err := document.MarshalRecord(adapter.registry, item)
			if err != nil {
				return common.NewSearchResponse(nil, 0, 0, err)
			}
			records = append(records, data)
		}
		return common.NewSearchResponse(records, page.TotalHits, page.TotalPages, nil)

	case common.MsgTDocStats:
		stats, err := s.Stats(req.TypeID, req.TenantID)
		return common.NewStatsResponse(stats, err)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC DocStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
