package datatables

import "fmt"

// Kind discriminates the failure classes of Run.
type Kind int

const (
	// KindInvalidParams – pagination numerics failed validation. Raised
	// before any store access.
	KindInvalidParams Kind = iota + 1
	// KindInvalidQuery – filter or projection compilation failed. Raised
	// before any store access.
	KindInvalidQuery
	// KindStore – a count or fetch failed; Cause wraps the store error.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "invalid-params"
	case KindInvalidQuery:
		return "invalid-query"
	case KindStore:
		return "store"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single failure type returned by Runner.Run. Callers branch on
// Kind; Cause is set only for KindStore.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("datatables: %s: %v", e.Message, e.Cause)
	}
	return "datatables: " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func invalidParams(fields ...string) *Error {
	msg := "malformed pagination parameters"
	for i, f := range fields {
		if i == 0 {
			msg += ": " + f
		} else {
			msg += ", " + f
		}
	}
	return &Error{Kind: KindInvalidParams, Message: msg}
}

func invalidQuery(cause error) *Error {
	return &Error{Kind: KindInvalidQuery, Message: fmt.Sprintf("malformed query parameters: %v", cause)}
}

func storeError(op string, cause error) *Error {
	return &Error{Kind: KindStore, Message: op + " failed", Cause: cause}
}
