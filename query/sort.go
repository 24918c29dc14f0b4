package query

import "github.com/nealshail/datatables-query/descriptor"

type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Sort is a field→direction ordering expression. The compiler only ever
// emits a single entry; multi-column sort is out of scope.
type Sort map[string]Direction

// CompileSort builds the ordering expression from the first order directive.
//
// It returns nil ("no sort", store-default order) when the descriptor has no
// order directives, the referenced column index is unparseable or out of
// bounds, the column is not orderable, or the column has no data field.
// Direction is ascending only for dir == "asc"; any other value sorts
// descending.
func CompileSort(req *descriptor.Request) Sort {
	if req == nil || len(req.Order) == 0 {
		return nil
	}
	ord := req.Order[0]
	if !ord.Column.Valid || ord.Column.Value < 0 || ord.Column.Value >= len(req.Columns) {
		return nil
	}
	col := req.Columns[ord.Column.Value]
	if !col.Orderable || col.Data == "" {
		return nil
	}
	dir := Descending
	if ord.Dir == "asc" {
		dir = Ascending
	}
	return Sort{col.Data: dir}
}
