package query

import (
	"testing"

	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/croftdb/croft/lib/record"
)

func compilerSchema() *record.Schema {
	return record.GenericSchema("widget", true, []record.GenericField{
		{Name: "name", Kind: record.KindString},
		{Name: "amount", Kind: record.KindInt},
		{Name: "active", Kind: record.KindBool},
		{Name: "drive", Kind: record.KindRecord, ElemType: "gear"},
	})
}

func mustsOf(t *testing.T, q bquery.Query) []bquery.Query {
	t.Helper()
	b, ok := q.(*bquery.BooleanQuery)
	if !ok {
		t.Fatalf("Expected boolean query, got %T", q)
	}
	if b.Must == nil {
		return nil
	}
	conj, ok := b.Must.(*bquery.ConjunctionQuery)
	if !ok {
		t.Fatalf("Expected conjunction, got %T", b.Must)
	}
	return conj.Conjuncts
}

func TestCompileStringFilter(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "name", Value: "rotor"}},
	})
	musts := mustsOf(t, q)
	if len(musts) != 1 {
		t.Fatalf("Expected 1 must clause, got %d", len(musts))
	}
	term, ok := musts[0].(*bquery.TermQuery)
	if !ok {
		t.Fatalf("Expected term query, got %T", musts[0])
	}
	if term.Term != "rotor" || term.Field() != "name" {
		t.Errorf("Expected name=rotor, got %s=%s", term.Field(), term.Term)
	}
}

func TestCompileNumericFilterBecomesPointRange(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "amount", Value: "30"}},
	})
	musts := mustsOf(t, q)
	nr, ok := musts[0].(*bquery.NumericRangeQuery)
	if !ok {
		t.Fatalf("Expected numeric range, got %T", musts[0])
	}
	if nr.Min == nil || nr.Max == nil || *nr.Min != 30 || *nr.Max != 30 {
		t.Errorf("Expected point range [30,30], got %+v", nr)
	}
}

func TestCompileBoolFilter(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "active", Value: "true"}},
	})
	musts := mustsOf(t, q)
	term, ok := musts[0].(*bquery.TermQuery)
	if !ok {
		t.Fatalf("Expected term query, got %T", musts[0])
	}
	if term.Term != "true" {
		t.Errorf("Expected term true, got %s", term.Term)
	}
}

func TestCompileRecordFilterUsesRefTerm(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "drive", Value: "42"}},
	})
	musts := mustsOf(t, q)
	term, ok := musts[0].(*bquery.TermQuery)
	if !ok {
		t.Fatalf("Expected term query, got %T", musts[0])
	}
	if term.Term != "@ref@42" {
		t.Errorf("Expected encoded ref term, got %s", term.Term)
	}
}

func shouldsOf(t *testing.T, q bquery.Query) []bquery.Query {
	t.Helper()
	b, ok := q.(*bquery.BooleanQuery)
	if !ok {
		t.Fatalf("Expected boolean query, got %T", q)
	}
	if b.Should == nil {
		return nil
	}
	disj, ok := b.Should.(*bquery.DisjunctionQuery)
	if !ok {
		t.Fatalf("Expected disjunction, got %T", b.Should)
	}
	return disj.Disjuncts
}

func TestCompileWildcardFilterTargetsContents(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "name", Value: "rot*"}},
	})
	if musts := mustsOf(t, q); len(musts) != 0 {
		t.Fatalf("Expected no must clause for a wildcard filter, got %d", len(musts))
	}
	shoulds := shouldsOf(t, q)
	if len(shoulds) != 1 {
		t.Fatalf("Expected 1 should clause, got %d", len(shoulds))
	}
	inner := shouldsOf(t, shoulds[0])
	if len(inner) != 1 {
		t.Fatalf("Expected 1 token clause, got %d", len(inner))
	}
	w, ok := inner[0].(*bquery.WildcardQuery)
	if !ok {
		t.Fatalf("Expected wildcard query, got %T", inner[0])
	}
	if w.Wildcard != "rot*" || w.Field() != record.FieldContents {
		t.Errorf("Expected contents=rot*, got %s=%s", w.Field(), w.Wildcard)
	}
}

func TestCompileWildcardFilterTokenizesValue(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "name", Value: "Steel-Rot*"}},
	})
	shoulds := shouldsOf(t, q)
	if len(shoulds) != 1 {
		t.Fatalf("Expected 1 should clause, got %d", len(shoulds))
	}
	inner := shouldsOf(t, shoulds[0])
	// one analyzed clause for the plain token, one wildcard for the other
	if len(inner) != 2 {
		t.Fatalf("Expected 2 token clauses, got %d", len(inner))
	}
	if m, ok := inner[0].(*bquery.MatchQuery); !ok || m.Match != "steel" {
		t.Errorf("Expected analyzed clause for steel, got %T %+v", inner[0], inner[0])
	}
	if w, ok := inner[1].(*bquery.WildcardQuery); !ok || w.Wildcard != "rot*" {
		t.Errorf("Expected wildcard clause for rot*, got %T %+v", inner[1], inner[1])
	}
}

func TestCompileContentsFilterIsAnalyzed(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: record.FieldContents, Value: "steel rotor"}},
	})
	if musts := mustsOf(t, q); len(musts) != 0 {
		t.Fatalf("Expected no must clause for a contents filter, got %d", len(musts))
	}
	shoulds := shouldsOf(t, q)
	if len(shoulds) != 1 {
		t.Fatalf("Expected 1 should clause, got %d", len(shoulds))
	}
	m, ok := shoulds[0].(*bquery.MatchQuery)
	if !ok {
		t.Fatalf("Expected match query, got %T", shoulds[0])
	}
	if m.Match != "steel rotor" || m.Field() != record.FieldContents {
		t.Errorf("Expected contents match, got %s=%s", m.Field(), m.Match)
	}
}

func TestCompileEmptySpecConfinesToType(t *testing.T) {
	q := compile(compilerSchema(), Spec{})
	musts := mustsOf(t, q)
	if len(musts) != 1 {
		t.Fatalf("Expected synthesized type clause, got %d clauses", len(musts))
	}
	term, ok := musts[0].(*bquery.TermQuery)
	if !ok {
		t.Fatalf("Expected term query, got %T", musts[0])
	}
	if term.Term != "widget" || term.Field() != record.FieldTypeID {
		t.Errorf("Expected type_id=widget, got %s=%s", term.Field(), term.Term)
	}
}

func TestCompileTextAddsWildcards(t *testing.T) {
	q := compile(compilerSchema(), Spec{Text: "Steel-Brace"})
	musts := mustsOf(t, q)
	if len(musts) != 1 {
		t.Fatalf("Expected 1 must clause, got %d", len(musts))
	}
	inner, ok := musts[0].(*bquery.BooleanQuery)
	if !ok {
		t.Fatalf("Expected boolean text clause, got %T", musts[0])
	}
	disj, ok := inner.Should.(*bquery.DisjunctionQuery)
	if !ok {
		t.Fatalf("Expected disjunction, got %T", inner.Should)
	}
	// one match query plus one wildcard per token
	if len(disj.Disjuncts) != 3 {
		t.Errorf("Expected 3 should clauses, got %d", len(disj.Disjuncts))
	}
	wildcards := 0
	for _, d := range disj.Disjuncts {
		if w, ok := d.(*bquery.WildcardQuery); ok {
			wildcards++
			if w.Wildcard != "*steel*" && w.Wildcard != "*brace*" {
				t.Errorf("Unexpected wildcard %s", w.Wildcard)
			}
		}
	}
	if wildcards != 2 {
		t.Errorf("Expected 2 wildcard clauses, got %d", wildcards)
	}
}

func TestCompileDropsEmptyFields(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Filters: []Filter{{Field: "", Value: "x"}},
		Ranges:  []Range{{Field: "", Min: "1", Numeric: true}},
	})
	musts := mustsOf(t, q)
	// only the synthesized type clause remains
	if len(musts) != 1 {
		t.Errorf("Expected empty conditions to be dropped, got %d clauses", len(musts))
	}
}

func TestCompileDropsUnboundedTermRange(t *testing.T) {
	q := compile(compilerSchema(), Spec{
		Ranges: []Range{{Field: "name"}},
	})
	musts := mustsOf(t, q)
	// only the synthesized type clause remains, the engine would reject a
	// term range without any bound
	if len(musts) != 1 {
		t.Fatalf("Expected unbounded range to be dropped, got %d clauses", len(musts))
	}
	if _, ok := musts[0].(*bquery.TermQuery); !ok {
		t.Errorf("Expected only the type clause, got %T", musts[0])
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Steel-Brace  rotor")
	if len(got) != 3 || got[0] != "steel" || got[1] != "brace" || got[2] != "rotor" {
		t.Errorf("Unexpected tokens %v", got)
	}
}
