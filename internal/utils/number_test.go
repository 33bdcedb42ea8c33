package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"  1 234,50 ", 1234.5, true},
		{"1 987", 1987, true},
		{"3.14", 3.14, true},
		{"-7,5", -7.5, true},
		{"(42)", -42, true},
		{"$19.99", 19.99, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "%q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "%q", tt.in)
		}
	}
}
