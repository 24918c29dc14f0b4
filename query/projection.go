package query

import "github.com/nealshail/datatables-query/descriptor"

// Projection is a field→inclusion selection expression.
type Projection map[string]bool

// CompileProjection selects the data field of every column. A descriptor
// without a columns sequence cannot be projected.
func CompileProjection(req *descriptor.Request) (Projection, error) {
	if req == nil || req.Columns == nil {
		return nil, ErrNoColumns
	}
	proj := make(Projection, len(req.Columns))
	for _, c := range req.Columns {
		if c.Data != "" {
			proj[c.Data] = true
		}
	}
	return proj, nil
}
