package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps simple names",
			input:    "book",
			expected: "book",
		},
		{
			name:     "lowercases",
			input:    "BorrowedBook",
			expected: "borrowedbook",
		},
		{
			name:     "joins words with underscores",
			input:    "employee shift",
			expected: "employee_shift",
		},
		{
			name:     "collapses separator runs",
			input:    "borrowed -- book..record",
			expected: "borrowed_book_record",
		},
		{
			name:     "removes invalid characters",
			input:    `mem<>:"/\|?*ber`,
			expected: "member",
		},
		{
			name:     "trims separators at the edges",
			input:    "  _user_  ",
			expected: "user",
		},
		{
			name:     "falls back for empty",
			input:    "",
			expected: "record",
		},
		{
			name:     "falls back for only special chars",
			input:    "<>:?*",
			expected: "record",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 100),
			expected: strings.Repeat("a", 64),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}
