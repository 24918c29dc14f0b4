// driver/eval.go
//
// In-process filter evaluation shared by the memory and redis datasources.
// Filters are compiled once per request into a predicate, then applied to
// every candidate document.
package driver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nealshail/datatables-query/internal"
	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

type predicate func(store.Document) bool

// compilePredicate lowers a Filter into a predicate. All top-level entries
// must hold (implicit conjunction, as in document stores).
func compilePredicate(f query.Filter) (predicate, error) {
	preds := make([]predicate, 0, len(f))
	for key, val := range f {
		switch key {
		case "$or":
			subs, err := compileSubFilters(key, val)
			if err != nil {
				return nil, err
			}
			preds = append(preds, anyOf(subs))
		case "$and":
			subs, err := compileSubFilters(key, val)
			if err != nil {
				return nil, err
			}
			preds = append(preds, allOf(subs))
		default:
			p, err := compileFieldPredicate(key, val)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
	}
	return allOf(preds), nil
}

func compileFieldPredicate(field string, val any) (predicate, error) {
	switch m := val.(type) {
	case query.Regex:
		re, err := compileRegex(m.Pattern, m.Options)
		if err != nil {
			return nil, err
		}
		return func(doc store.Document) bool {
			s, ok := lookupString(doc, field)
			return ok && re.MatchString(s)
		}, nil
	case query.AllTokens:
		// RE2 has no lookaheads, so each token is tested on its own.
		res := make([]*regexp.Regexp, 0, len(m.Tokens))
		for _, t := range m.Tokens {
			re, err := compileRegex(t, m.Options)
			if err != nil {
				return nil, err
			}
			res = append(res, re)
		}
		return func(doc store.Document) bool {
			s, ok := lookupString(doc, field)
			if !ok {
				return false
			}
			for _, re := range res {
				if !re.MatchString(s) {
					return false
				}
			}
			return true
		}, nil
	default:
		want := val
		return func(doc store.Document) bool {
			got, ok := lookupField(doc, field)
			return ok && looseEqual(got, want)
		}, nil
	}
}

func compileSubFilters(key string, val any) ([]predicate, error) {
	var filters []query.Filter
	switch vs := val.(type) {
	case []query.Filter:
		filters = vs
	case []any:
		for _, v := range vs {
			switch sub := v.(type) {
			case query.Filter:
				filters = append(filters, sub)
			case map[string]any:
				filters = append(filters, query.Filter(sub))
			default:
				return nil, fmt.Errorf("driver: element of %s must be a filter, got %T", key, v)
			}
		}
	case []map[string]any:
		for _, v := range vs {
			filters = append(filters, query.Filter(v))
		}
	default:
		return nil, fmt.Errorf("driver: value of %s must be a list of filters, got %T", key, val)
	}
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		p, err := compilePredicate(f)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func allOf(preds []predicate) predicate {
	return func(doc store.Document) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []predicate) predicate {
	return func(doc store.Document) bool {
		for _, p := range preds {
			if p(doc) {
				return true
			}
		}
		return false
	}
}

func compileRegex(pattern, options string) (*regexp.Regexp, error) {
	if strings.ContainsRune(options, 'i') {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// -------------------------------------------------------------------
// Document access and comparison
// -------------------------------------------------------------------

// lookupField resolves a possibly dotted field path against a document.
func lookupField(doc store.Document, path string) (any, bool) {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(doc store.Document, path string) (string, bool) {
	v, ok := lookupField(doc, path)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// looseEqual compares by string rendering, so JSON's float64 numbers still
// match integer literals supplied in a base filter.
func looseEqual(a, b any) bool {
	if fa, oka := toFloat(a); oka {
		if fb, okb := toFloat(b); okb {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues orders two field values: numerically when both sides parse
// as numbers, by string otherwise.
func compareValues(a, b any) int {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// -------------------------------------------------------------------
// Result shaping
// -------------------------------------------------------------------

func sortDocuments(docs []store.Document, s query.Sort) {
	for field, dir := range s {
		sort.SliceStable(docs, func(i, j int) bool {
			vi, _ := lookupField(docs[i], field)
			vj, _ := lookupField(docs[j], field)
			if dir == query.Ascending {
				return compareValues(vi, vj) < 0
			}
			return compareValues(vi, vj) > 0
		})
	}
}

func projectDocument(doc store.Document, proj query.Projection) store.Document {
	if len(proj) == 0 {
		return doc
	}
	out := make(store.Document, len(proj))
	for field, include := range proj {
		if !include {
			continue
		}
		if v, ok := lookupField(doc, field); ok {
			out[field] = v
		}
	}
	return out
}

// pageDocuments applies skip and limit. A negative limit reads to the end.
func pageDocuments(docs []store.Document, skip, limit int64) []store.Document {
	start := internal.Min(internal.Max(skip, 0), int64(len(docs)))
	rest := docs[start:]
	if limit < 0 || limit > int64(len(rest)) {
		return rest
	}
	return rest[:limit]
}
