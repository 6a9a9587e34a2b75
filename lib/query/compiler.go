package query

import (
	"strconv"
	"strings"

	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/record"
)

// compile translates a spec into the engine's query tree. Named-field
// conditions are conjunctive (MUST); free text, wildcard-valued filters and
// filters against the contents field expand to disjunctions (SHOULD) over
// the contents field. Conditions naming an empty field are logged and
// dropped rather than failing the whole search.
func compile(schema *record.Schema, spec Spec) bquery.Query {
	root := bquery.NewBooleanQuery(nil, nil, nil)
	clauses := 0

	for _, f := range spec.Filters {
		if f.Field == "" {
			Logger.Warningf("type %s: dropping filter with empty field", schema.TypeID)
			continue
		}
		switch {
		// id and parent filters stay exact even when the value looks odd
		case f.Field == record.FieldID || f.Field == record.FieldParent:
			root.AddMust(compileFilter(schema, f))
		case strings.ContainsAny(f.Value, "*?"):
			root.AddShould(compileWildcardFilter(f.Value))
		case f.Field == record.FieldContents:
			m := bquery.NewMatchQuery(f.Value)
			m.SetField(record.FieldContents)
			root.AddShould(m)
		default:
			root.AddMust(compileFilter(schema, f))
		}
		clauses++
	}

	if text := strings.TrimSpace(spec.Text); text != "" {
		root.AddMust(compileText(text))
		clauses++
	}

	// a spec with no filters and no text still has to be confined to its own
	// record type, since namespaces may be rebuilt from mixed sources
	if clauses == 0 {
		tq := bquery.NewTermQuery(schema.TypeID)
		tq.SetField(record.FieldTypeID)
		root.AddMust(tq)
	}

	for _, r := range spec.Ranges {
		if r.Field == "" {
			Logger.Warningf("type %s: dropping range with empty field", schema.TypeID)
			continue
		}
		if q := compileRange(schema, r); q != nil {
			root.AddMust(q)
		}
	}

	return root
}

// compileFilter builds the exact-match clause for one field, consulting the
// schema so that numerically indexed fields get a point range instead of a
// term the engine would never match.
func compileFilter(schema *record.Schema, f Filter) bquery.Query {
	switch fieldKind(schema, f.Field) {
	case record.KindInt, record.KindFloat, record.KindTime:
		if v, err := strconv.ParseFloat(f.Value, 64); err == nil {
			return numericPoint(f.Field, v)
		}
		Logger.Warningf("type %s: non-numeric value %q for numeric field %s", schema.TypeID, f.Value, f.Field)
	case record.KindBool:
		q := bquery.NewTermQuery(strconv.FormatBool(f.Value == "true"))
		q.SetField(f.Field)
		return q
	case record.KindRecord:
		if id, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
			q := bquery.NewTermQuery(document.EncodeRef(id))
			q.SetField(f.Field)
			return q
		}
	case record.KindRecordList:
		if id, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
			q := bquery.NewTermQuery(document.EncodeParentRef(id))
			q.SetField(f.Field)
			return q
		}
	}
	q := bquery.NewTermQuery(f.Value)
	q.SetField(f.Field)
	return q
}

// compileWildcardFilter builds the clause for a filter value carrying
// wildcard tokens: the value is normalized and tokenized like free text, and
// each token becomes a wildcard or analyzed clause against the contents
// field, any one of which is enough.
func compileWildcardFilter(value string) bquery.Query {
	shoulds := make([]bquery.Query, 0, 2)
	for _, tok := range tokenize(value) {
		if strings.ContainsAny(tok, "*?") {
			w := bquery.NewWildcardQuery(tok)
			w.SetField(record.FieldContents)
			shoulds = append(shoulds, w)
			continue
		}
		m := bquery.NewMatchQuery(tok)
		m.SetField(record.FieldContents)
		shoulds = append(shoulds, m)
	}
	return bquery.NewBooleanQuery(nil, shoulds, nil)
}

// compileText builds the free-text clause: a phrase-tolerant match over the
// contents field plus a wildcard per token, any one of which is enough.
func compileText(text string) bquery.Query {
	match := bquery.NewMatchQuery(text)
	match.SetField(record.FieldContents)

	shoulds := []bquery.Query{match}
	for _, tok := range tokenize(text) {
		w := bquery.NewWildcardQuery("*" + tok + "*")
		w.SetField(record.FieldContents)
		shoulds = append(shoulds, w)
	}
	return bquery.NewBooleanQuery(nil, shoulds, nil)
}

func compileRange(schema *record.Schema, r Range) bquery.Query {
	inclusive := true
	if r.Numeric || numericKind(fieldKind(schema, r.Field)) {
		var min, max *float64
		if r.Min != "" {
			if v, err := strconv.ParseFloat(r.Min, 64); err == nil {
				min = &v
			}
		}
		if r.Max != "" {
			if v, err := strconv.ParseFloat(r.Max, 64); err == nil {
				max = &v
			}
		}
		if min == nil && max == nil {
			Logger.Warningf("type %s: dropping numeric range on %s with no parsable bound", schema.TypeID, r.Field)
			return nil
		}
		q := bquery.NewNumericRangeInclusiveQuery(min, max, &inclusive, &inclusive)
		q.SetField(r.Field)
		return q
	}
	if r.Min == "" && r.Max == "" {
		Logger.Warningf("type %s: dropping range on %s with no bound", schema.TypeID, r.Field)
		return nil
	}
	q := bquery.NewTermRangeInclusiveQuery(r.Min, r.Max, &inclusive, &inclusive)
	q.SetField(r.Field)
	return q
}

// fieldKind resolves the kind of a field name, covering the system fields
// that no schema declares.
func fieldKind(schema *record.Schema, name string) record.FieldKind {
	switch name {
	case record.FieldCreateTime, record.FieldUpdateTime:
		return record.KindTime
	case record.FieldID, record.FieldTypeID, record.FieldTenantID, record.FieldParent, record.FieldContents:
		return record.KindString
	}
	if f := schema.Field(name); f != nil {
		return f.Kind
	}
	return record.KindString
}

func numericKind(k record.FieldKind) bool {
	return k == record.KindInt || k == record.KindFloat || k == record.KindTime
}

func numericPoint(field string, v float64) bquery.Query {
	inclusive := true
	q := bquery.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	q.SetField(field)
	return q
}

// tokenize lowercases the text and splits it on whitespace and hyphens so
// hyphenated terms match their parts too.
func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "-", " "))
	return strings.Fields(text)
}
