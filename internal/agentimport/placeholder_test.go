package agentimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "bare token", value: "<TO_CONFIG>", want: true},
		{name: "with hint", value: "<TO_CONFIG:foo bar>", want: true},
		{name: "empty hint", value: "<TO_CONFIG:>", want: false},
		{name: "surrounding text", value: "x <TO_CONFIG>", want: false},
		{name: "lower case", value: "<to_config>", want: false},
		{name: "plain string", value: "hello", want: false},
		{name: "number", value: 42, want: false},
		{name: "nil", value: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholder(tt.value))
		})
	}
}

func TestPlaceholderHint(t *testing.T) {
	hint, ok := PlaceholderHint("<TO_CONFIG:foo bar>")
	assert.True(t, ok)
	assert.Equal(t, "foo bar", hint)

	hint, ok = PlaceholderHint("<TO_CONFIG>")
	assert.False(t, ok)
	assert.Empty(t, hint)

	hint, ok = PlaceholderHint("<TO_CONFIG:  padded >")
	assert.True(t, ok)
	assert.Equal(t, "  padded ", hint)
}

func TestHintSegments(t *testing.T) {
	segs := HintSegments("Get a key at [Exa](https://exa.ai) or [docs](https://d.example/x).")
	assert.Equal(t, []HintSegment{
		{Text: "Get a key at "},
		{Text: "Exa", URL: "https://exa.ai"},
		{Text: " or "},
		{Text: "docs", URL: "https://d.example/x"},
		{Text: "."},
	}, segs)
	assert.True(t, segs[1].IsLink())
	assert.False(t, segs[0].IsLink())

	assert.Equal(t, []HintSegment{{Text: "no links"}}, HintSegments("no links"))
	assert.Nil(t, HintSegments(""))
}
