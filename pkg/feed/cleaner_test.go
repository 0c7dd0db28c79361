package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", ""},
		{"plain text untouched", "plain text", "plain text"},
		{"trims whitespace", "  spaced out \n", "spaced out"},
		{"strips simple tags", "<b>bold</b> move", "bold move"},
		{"strips nested tags", "<div><p>nested <em>deep</em></p></div>", "nested deep"},
		{"strips attributes", `<a href="https://example.com">link text</a>`, "link text"},
		{"strips self-closing", "before<br/>after", "beforeafter"},
		{"unescapes entities", "<p>AT&amp;T &quot;quote&quot;</p>", `AT&T "quote"`},
		{"tag soup", "<p>unclosed <b>both", "unclosed both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
			assert.NotContains(t, got, ">")
		})
	}
}

func TestClean_NoTagsEqualsTrimmedInput(t *testing.T) {
	inputs := []string{"hello world", " padded ", "numbers 123", "dash - dot ."}
	for _, in := range inputs {
		assert.Equal(t, Clean(in), Clean(Clean(in)), "clean is idempotent for %q", in)
	}
}
