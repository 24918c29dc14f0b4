package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "john smith", want: "john smith"},
		{name: "dot and star", in: "a.b*c", want: `a\.b\*c`},
		{name: "anchors and dash", in: "^x$-y", want: `\^x\$\-y`},
		{name: "groups and classes", in: "(a)[b]{c}", want: `\(a\)\[b\]\{c\}`},
		{name: "slash pipe plus question", in: "a/b|c+d?", want: `a\/b\|c\+d\?`},
		{name: "backslash", in: `a\b`, want: `a\\b`},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestEscapeIdempotentOnPlainText(t *testing.T) {
	// Holds only for metacharacter-free input: the escape backslash is
	// itself a metacharacter.
	for _, s := range []string{"", "jo", "john smith", `"John Doe" Jane`} {
		assert.Equal(t, Escape(s), Escape(Escape(s)), "input %q", s)
	}
}
