// Package query compiles request descriptors into document-store query
// fragments: a filter, an ordering, and a projection.
//
// The expression types follow the structural conventions of document stores:
// a Filter is a field→matcher mapping that may carry "$or" (a disjunction of
// sub-filters) and "$and" (a conjunction); Sort maps one field to a
// direction; Projection maps fields to inclusion. Drivers lower these into
// their native query form.
//
//	filter, err := query.CompileFilter(req)
//	sort := query.CompileSort(req)
//	proj, err := query.CompileProjection(req)
package query

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nealshail/datatables-query/descriptor"
	"github.com/nealshail/datatables-query/internal"
)

var (
	// ErrNoColumns reports a descriptor without a columns sequence.
	ErrNoColumns = errors.New("query: descriptor has no columns")
	// ErrNoSearch reports a descriptor without a search object.
	ErrNoSearch = errors.New("query: descriptor has no search object")
)

// Filter is a field→matcher mapping. Values are either literals (matched by
// equality), a Matcher, or the "$or"/"$and" combinator keys holding a list
// of sub-filters.
type Filter map[string]any

// Clone returns a shallow copy of f. A nil filter clones to an empty one.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f)+2)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// -------------------------------------------------------------------
// Matchers – field-level predicates attached to a Filter. Nodes stay
// dumb data containers; drivers lower them into their native form.
// -------------------------------------------------------------------

// Matcher is a field-level predicate.
type Matcher interface {
	isMatcher()
}

// Regex matches field values against a regular-expression pattern.
// Options follows the usual flag convention ("i" for case-insensitive).
type Regex struct {
	Pattern string
	Options string
}

func (Regex) isMatcher() {}

// AllTokens matches field values containing every token, in any order.
// Tokens are pre-escaped regex fragments.
type AllTokens struct {
	Tokens  []string
	Options string
}

func (AllTokens) isMatcher() {}

// Pattern renders the matcher as a single conjunctive-lookahead pattern,
// for stores whose regex engine supports lookaheads.
func (m AllTokens) Pattern() string {
	var sb strings.Builder
	for _, t := range m.Tokens {
		sb.WriteString("(?=.*")
		sb.WriteString(t)
		sb.WriteByte(')')
	}
	return sb.String()
}

// -------------------------------------------------------------------
// Filter compilation
// -------------------------------------------------------------------

// tokenPattern splits smart-search text into words, treating a double-quoted
// run as one token.
var tokenPattern = regexp.MustCompile(`"[^"]+"|\S+`)

// CompileFilter builds the store filter from the descriptor's search term,
// its searchable columns, and the optional base filter.
//
// An empty search term leaves the base filter untouched. So does a request
// with zero searchable columns: the search term is deliberately ignored
// rather than matching nothing. When the base filter already carries a "$or"
// disjunction, the search disjunction is combined with it under "$and" so
// neither is dropped.
func CompileFilter(req *descriptor.Request) (Filter, error) {
	if req == nil || req.Columns == nil {
		return nil, ErrNoColumns
	}
	if req.Search == nil {
		return nil, ErrNoSearch
	}

	base := Filter(req.Find).Clone()
	text := Escape(req.Search.Value)
	if text == "" {
		return base, nil
	}

	var m Matcher
	if req.Search.Smart {
		m = AllTokens{Tokens: tokenize(text), Options: "i"}
	} else {
		m = Regex{Pattern: text, Options: "i"}
	}

	fields := SearchableFields(req.Columns)
	switch len(fields) {
	case 0:
		return base, nil
	case 1:
		base[fields[0]] = m
		return base, nil
	}

	search := internal.Map(fields, func(f string) Filter {
		return Filter{f: m}
	})
	if existing, ok := base["$or"]; ok {
		base["$and"] = []Filter{{"$or": existing}, {"$or": search}}
		delete(base, "$or")
	} else {
		base["$or"] = search
	}
	return base, nil
}

// SearchableFields returns, in column order, the data field of every column
// whose searchable flag is set.
func SearchableFields(cols []descriptor.Column) []string {
	fields := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Searchable && c.Data != "" {
			fields = append(fields, c.Data)
		}
	}
	return fields
}

func tokenize(s string) []string {
	return internal.Map(tokenPattern.FindAllString(s, -1), func(t string) string {
		return strings.Trim(t, `"`)
	})
}
