// Package query compiles declarative search specs into the engine's query
// language and materializes hits back into typed records.
//
// A Spec is a conjunction of exact filters, inclusive ranges and optional
// free text, with paging and a single-field sort. Three execution shapes are
// supported: a paged window, a single best hit, and fetch-all.
//
// Example:
//
//	reader := query.NewReader(resolver, registry, mgr)
//
//	page, err := reader.Search("widget", "acme", query.Spec{
//	    Filters: []query.Filter{{Field: "color", Value: "red"}},
//	    Sort:    &query.Sort{Field: "create_time", Type: query.SortLong},
//	    Limit:   25,
//	})
//
// Thread-safety: the reader is safe for concurrent use.
package query
