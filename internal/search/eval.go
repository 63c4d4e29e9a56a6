package search

import (
	"strings"
	"unicode"

	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
)

// evaluate reports whether doc satisfies c and the score it contributes.
func evaluate(c query.Clause, doc models.Document) (bool, float64) {
	switch q := c.(type) {
	case query.MatchAll:
		return true, 1
	case query.Match:
		n := matchedTerms(q, doc[q.Field])
		if n == 0 {
			return false, 0
		}
		boost := q.Boost
		if boost == 0 {
			boost = 1
		}
		return true, float64(n) * boost
	case query.Term:
		return termMatches(doc[q.Field], q.Value), 0
	case query.Range:
		v, ok := number(doc[q.Field])
		if !ok {
			return false, 0
		}
		if q.Gte != nil && v < *q.Gte {
			return false, 0
		}
		if q.Lte != nil && v > *q.Lte {
			return false, 0
		}
		return true, 0
	case query.Bool:
		return evaluateBool(q, doc)
	}
	return false, 0
}

// evaluateBool applies OpenSearch defaults: should clauses are optional once
// a must or filter clause is present, otherwise at least one must match.
func evaluateBool(q query.Bool, doc models.Document) (bool, float64) {
	if len(q.Must)+len(q.Should)+len(q.Filter) == 0 {
		return true, 1
	}
	var score float64
	for _, c := range q.Must {
		ok, s := evaluate(c, doc)
		if !ok {
			return false, 0
		}
		score += s
	}
	for _, c := range q.Filter {
		if ok, _ := evaluate(c, doc); !ok {
			return false, 0
		}
	}
	matched := 0
	for _, c := range q.Should {
		if ok, s := evaluate(c, doc); ok {
			matched++
			score += s
		}
	}
	required := 0
	if len(q.Must) == 0 && len(q.Filter) == 0 && len(q.Should) > 0 {
		required = 1
	}
	if q.MinimumShouldMatch != nil {
		required = *q.MinimumShouldMatch
	}
	if matched < required {
		return false, 0
	}
	return true, score
}

// matchedTerms counts query terms found in the field, fuzzily when asked.
func matchedTerms(q query.Match, field any) int {
	var docTerms []string
	switch v := field.(type) {
	case string:
		docTerms = analyze(v)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				docTerms = append(docTerms, analyze(s)...)
			}
		}
	case []string:
		for _, s := range v {
			docTerms = append(docTerms, analyze(s)...)
		}
	}
	if len(docTerms) == 0 {
		return 0
	}
	n := 0
	for _, qt := range analyze(q.Text) {
		allowed := 0
		if q.Fuzziness != "" {
			allowed = autoFuzziness(qt)
		}
		for _, dt := range docTerms {
			if editDistance(qt, dt) <= allowed {
				n++
				break
			}
		}
	}
	return n
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}

// analyze lowercases, splits on anything but letters and digits, and drops
// English stop words.
func analyze(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}

// autoFuzziness is AUTO:3,6.
func autoFuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n < 3:
		return 0
	case n < 6:
		return 1
	default:
		return 2
	}
}

// editDistance is the optimal string alignment distance: Levenshtein plus
// adjacent transpositions.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(ra)][len(rb)]
}

func termMatches(field, want any) bool {
	if list, ok := field.([]any); ok {
		for _, e := range list {
			if equal(e, want) {
				return true
			}
		}
		return false
	}
	return equal(field, want)
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
