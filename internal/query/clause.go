// Package query builds structured boolean queries in the OpenSearch query
// grammar. Clauses are typed so callers and the in-memory evaluator can
// inspect them; JSON encoding produces the wire form.
package query

import "encoding/json"

// Clause is one node of a query tree.
type Clause interface {
	json.Marshaler
	clause()
}

// Match is an analyzed full-text clause.
type Match struct {
	Field     string
	Text      string
	Fuzziness string  // "" or "AUTO"
	Boost     float64 // 0 leaves the engine default
}

// Term is an exact match against a keyword, numeric or boolean field.
type Term struct {
	Field string
	Value any
}

// Range is inclusive; a nil bound is open.
type Range struct {
	Field string
	Gte   *float64
	Lte   *float64
}

type MatchAll struct{}

// Bool combines clauses. Must and Filter are required; only Must and Should
// contribute to score. With MinimumShouldMatch nil the engine default holds:
// a bool without Must or Filter needs one Should to match.
type Bool struct {
	Must               []Clause
	Should             []Clause
	Filter             []Clause
	MinimumShouldMatch *int
}

func (Match) clause()    {}
func (Term) clause()     {}
func (Range) clause()    {}
func (MatchAll) clause() {}
func (Bool) clause()     {}

func (m Match) MarshalJSON() ([]byte, error) {
	body := map[string]any{"query": m.Text}
	if m.Fuzziness != "" {
		body["fuzziness"] = m.Fuzziness
	}
	if m.Boost != 0 {
		body["boost"] = m.Boost
	}
	return json.Marshal(map[string]any{"match": map[string]any{m.Field: body}})
}

func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"term": map[string]any{t.Field: t.Value}})
}

func (r Range) MarshalJSON() ([]byte, error) {
	bounds := map[string]float64{}
	if r.Gte != nil {
		bounds["gte"] = *r.Gte
	}
	if r.Lte != nil {
		bounds["lte"] = *r.Lte
	}
	return json.Marshal(map[string]any{"range": map[string]any{r.Field: bounds}})
}

func (MatchAll) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"must":   nonNil(b.Must),
		"should": nonNil(b.Should),
		"filter": nonNil(b.Filter),
	}
	if b.MinimumShouldMatch != nil {
		body["minimum_should_match"] = *b.MinimumShouldMatch
	}
	return json.Marshal(map[string]any{"bool": body})
}

func nonNil(cs []Clause) []Clause {
	if cs == nil {
		return []Clause{}
	}
	return cs
}

// Request is a search body: a query plus a result bound.
type Request struct {
	Query Clause
	Size  int
}

func (r Request) MarshalJSON() ([]byte, error) {
	q := r.Query
	if q == nil {
		q = MatchAll{}
	}
	return json.Marshal(struct {
		Query Clause `json:"query"`
		Size  int    `json:"size"`
	}{q, r.Size})
}

// All lists every document up to size.
func All(size int) Request {
	return Request{Query: MatchAll{}, Size: size}
}

func f64(v float64) *float64 { return &v }
