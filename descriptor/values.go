package descriptor

import (
	"fmt"
	"net/url"
	"strconv"
)

// FromValues parses the classic form-encoded DataTables request
// (draw=1&columns[0][data]=name&order[0][column]=0&search[value]=jo&…)
// into a typed Request.
//
// Columns and order directives are read by increasing index until the first
// gap. The smart-search flag is read from search[smart], falling back to
// DataTables' own search[regex] key.
func FromValues(vals url.Values) (*Request, error) {
	req := &Request{
		Draw:   parseNumber(vals.Get("draw")),
		Start:  parseNumber(vals.Get("start")),
		Length: parseNumber(vals.Get("length")),
	}

	for i := 0; ; i++ {
		prefix := fmt.Sprintf("columns[%d]", i)
		if !vals.Has(prefix + "[data]") {
			break
		}
		searchable, err := formBool(vals, prefix+"[searchable]")
		if err != nil {
			return nil, err
		}
		orderable, err := formBool(vals, prefix+"[orderable]")
		if err != nil {
			return nil, err
		}
		req.Columns = append(req.Columns, Column{
			Data:       vals.Get(prefix + "[data]"),
			Searchable: searchable,
			Orderable:  orderable,
		})
	}

	for i := 0; ; i++ {
		prefix := fmt.Sprintf("order[%d]", i)
		if !vals.Has(prefix + "[column]") {
			break
		}
		idx := Index{}
		if v, err := strconv.Atoi(vals.Get(prefix + "[column]")); err == nil {
			idx = Index{Value: v, Valid: true}
		}
		req.Order = append(req.Order, Order{
			Column: idx,
			Dir:    vals.Get(prefix + "[dir]"),
		})
	}

	if vals.Has("search[value]") {
		smartKey := "search[smart]"
		if !vals.Has(smartKey) {
			smartKey = "search[regex]"
		}
		smart, err := formBool(vals, smartKey)
		if err != nil {
			return nil, err
		}
		req.Search = &Search{
			Value: vals.Get("search[value]"),
			Smart: smart,
		}
	}

	return req, nil
}

// formBool reads an optional boolean form field. Absence reads as false;
// a present but unparseable value is an error.
func formBool(vals url.Values, key string) (Bool, error) {
	s := vals.Get(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("descriptor: %s=%q is not a boolean", key, s)
	}
	return Bool(v), nil
}
