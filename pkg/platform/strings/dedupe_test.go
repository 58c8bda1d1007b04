package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"de-escalate"},
			expected: []string{"de-escalate"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  call contact  ", "slow approach  ", "  stand off"},
			expected: []string{"call contact", "slow approach", "stand off"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"a", "b", "a", "c", "b"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"a", "", "  ", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "combined: trim, dedupe, remove empty",
			input:    []string{"  a ", "b", "a", "", "  ", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "preserves case",
			input:    []string{"Foo", "foo", "FOO"},
			expected: []string{"Foo", "foo", "FOO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "lowercases and dedupes",
			input:    []string{"Johnny", "johnny", "JOHNNY"},
			expected: []string{"johnny"},
		},
		{
			name:     "trims, lowercases, and dedupes",
			input:    []string{"  JUNE ", "slim", "June", "SLIM"},
			expected: []string{"june", "slim"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrimLower(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		sep      string
		parts    []string
		expected string
	}{
		{
			name:     "all present",
			sep:      " - ",
			parts:    []string{"WM", `5'11"`, "180 lb"},
			expected: `WM - 5'11" - 180 lb`,
		},
		{
			name:     "skips empty middle",
			sep:      " - ",
			parts:    []string{"WM", "", "180 lb"},
			expected: "WM - 180 lb",
		},
		{
			name:     "skips whitespace-only",
			sep:      ", ",
			parts:    []string{"  ", "Springfield", "IL"},
			expected: "Springfield, IL",
		},
		{
			name:     "all empty",
			sep:      " - ",
			parts:    []string{"", "  "},
			expected: "",
		},
		{
			name:     "no parts",
			sep:      " - ",
			parts:    nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JoinNonEmpty(tt.sep, tt.parts...))
		})
	}
}
