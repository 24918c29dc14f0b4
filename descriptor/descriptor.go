// Package descriptor defines the DataTables server-side request and response
// envelopes and parses their loosely-typed wire encodings once, at the
// boundary.
//
// DataTables clients encode booleans and integers as strings ("true", "0");
// the flexible types in this package (Bool, Number, Index) accept either form
// so the rest of the library only ever sees typed values.
//
//	var req descriptor.Request
//	if err := json.Unmarshal(body, &req); err != nil { ... }
//
// or, for the classic form-encoded GET protocol:
//
//	req, err := descriptor.FromValues(r.URL.Query())
package descriptor

// Column describes one table column of the inbound request.
type Column struct {
	// Data is the document field backing the column.
	Data string `json:"data"`
	// Searchable marks the column as eligible for free-text search.
	Searchable Bool `json:"searchable"`
	// Orderable marks the column as eligible for sorting.
	Orderable Bool `json:"orderable"`
}

// Order is a sort directive. Only the first directive of a request is
// honored; multi-column sort is out of scope.
type Order struct {
	// Column indexes into Request.Columns.
	Column Index `json:"column"`
	// Dir is "asc" for ascending; any other value sorts descending.
	Dir string `json:"dir"`
}

// Search carries the free-text search term.
type Search struct {
	Value string `json:"value"`
	// Smart enables multi-token, order-independent, phrase-aware matching.
	Smart Bool `json:"smart"`
}

// Request is the inbound descriptor. It is treated as immutable per call.
type Request struct {
	// Draw is an opaque correlation token echoed verbatim in the response.
	Draw   Number `json:"draw"`
	Start  Number `json:"start"`
	Length Number `json:"length"`

	Columns []Column `json:"columns"`
	Order   []Order  `json:"order"`
	Search  *Search  `json:"search"`

	// Find is an optional caller-supplied base filter merged with the
	// compiled search filter.
	Find map[string]any `json:"find,omitempty"`
	// Populate names relations to expand on the fetched page. It is
	// forwarded verbatim to the datasource.
	Populate Populate `json:"populate,omitempty"`
}

// Response is the outbound paged envelope.
type Response struct {
	Draw int64 `json:"draw"`
	// RecordsTotal counts documents matching the base filter alone.
	RecordsTotal int64 `json:"recordsTotal"`
	// RecordsFiltered counts documents matching the compiled filter
	// (search text plus base filter). Under concurrent writes it may
	// exceed RecordsTotal; callers must tolerate that.
	RecordsFiltered int64            `json:"recordsFiltered"`
	Data            []map[string]any `json:"data"`
}
