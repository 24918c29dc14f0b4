package descriptor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// -------------------------------------------------------------------
// Flexible wire types – DataTables string-encodes scalars, so every
// type here accepts both the native JSON form and its quoted form.
// -------------------------------------------------------------------

// Bool accepts true/false or their string encodings ("true", "false").
// Anything else is a parse error; a bad searchable/orderable flag must fail
// the whole request rather than silently default.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseBool(strings.Trim(s, `"`))
	if err != nil {
		return fmt.Errorf("descriptor: %s is not a boolean", s)
	}
	*b = Bool(v)
	return nil
}

// Number accepts integers or string-encoded integers. A missing, null, or
// unparseable value yields Valid == false instead of an unmarshal error, so
// the orchestrator can reject the request naming the offending parameter.
type Number struct {
	Value int64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = parseNumber(strings.Trim(string(data), `"`))
	return nil
}

func parseNumber(s string) Number {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Index accepts integers or string-encoded integers. Like Number it never
// errors: an unparseable sort-column index reads as Valid == false, which the
// sort compiler treats as "no sort".
type Index struct {
	Value int
	Valid bool
}

func (i *Index) UnmarshalJSON(data []byte) error {
	v, err := strconv.Atoi(strings.Trim(string(data), `"`))
	if err != nil {
		*i = Index{}
		return nil
	}
	*i = Index{Value: v, Valid: true}
	return nil
}

// Populate accepts a single relation name or a list of names.
type Populate []string

func (p *Populate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*p = Populate{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("descriptor: populate must be a relation name or a list of names: %w", err)
	}
	*p = Populate(many)
	return nil
}
