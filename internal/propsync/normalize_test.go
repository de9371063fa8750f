package propsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "mixed separators", in: "a, b;  c", want: []string{"a", "b", "c"}},
		{name: "newlines", in: "8.8.8.8\n1.1.1.1", want: []string{"8.8.8.8", "1.1.1.1"}},
		{name: "blank", in: " \t\n ", want: []string{}},
		{name: "empty", in: "", want: []string{}},
		{name: "separators only", in: ",;,", want: []string{}},
		{name: "single", in: "example.com", want: []string{"example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeList(tt.in)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimplify(t *testing.T) {
	assert.Equal(t, "10.0.0.1", Simplify("  10.0.0.1 \n"))
	assert.Equal(t, "a b", Simplify("a\t\t b"))
	assert.Equal(t, "", Simplify("   "))
}
