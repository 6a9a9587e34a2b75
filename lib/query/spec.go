package query

import (
	"time"

	"github.com/croftdb/croft/lib/record"
)

// --------------------------------------------------------------------------
// Query Specification
// --------------------------------------------------------------------------

// SortType selects how hit values of the sort field are compared.
type SortType int

const (
	// SortString compares the field values lexically.
	SortString SortType = iota
	// SortLong compares the field values as integers.
	SortLong
	// SortDouble compares the field values as floating point numbers.
	SortDouble
)

// Filter is an exact-match condition on a named field.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Range is an inclusive bounds condition on a named field. Min and Max are
// given as strings and interpreted numerically when Numeric is set; an empty
// bound is unbounded.
type Range struct {
	Field   string `json:"field"`
	Min     string `json:"min"`
	Max     string `json:"max"`
	Numeric bool   `json:"numeric"`
}

// Sort orders the result set by a single field.
type Sort struct {
	Field     string   `json:"field"`
	Type      SortType `json:"type"`
	Ascending bool     `json:"ascending"`
}

// Spec describes one search against a namespace. All given conditions must
// hold (conjunction); free text additionally matches against the contents
// catch-all field.
type Spec struct {
	// Page is 1-based. Values below 1 are treated as the first page.
	Page int `json:"page"`
	// Limit is the page size. Values below 1 fall back to DefaultLimit.
	Limit int `json:"limit"`
	// FetchAll counts every hit exactly; when Page and Limit are also set
	// the returned items are still windowed to that page, otherwise every
	// hit is materialized.
	FetchAll bool `json:"fetch_all"`

	Text    string   `json:"text,omitempty"`
	Filters []Filter `json:"filters,omitempty"`
	Ranges  []Range  `json:"ranges,omitempty"`
	Sort    *Sort    `json:"sort,omitempty"`
}

// DefaultLimit is the page size used when the spec gives none.
const DefaultLimit = 10

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Page is one window of a result set. TotalHits and TotalPages are exact,
// not estimates.
type Page struct {
	Items      []record.Record `json:"items"`
	Limit      int             `json:"limit"`
	Number     int             `json:"number"`
	TotalHits  int             `json:"total_hits"`
	TotalPages int             `json:"total_pages"`
	Elapsed    time.Duration   `json:"elapsed"`
}

func (s *Spec) page() int {
	if s.Page < 1 {
		return 1
	}
	return s.Page
}

func (s *Spec) limit() int {
	if s.Limit < 1 {
		return DefaultLimit
	}
	return s.Limit
}
