package services

import (
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain number",
			input:    "5511999999999",
			expected: "5511999999999",
		},
		{
			name:     "with plus and spaces",
			input:    "+55 11 99999-9999",
			expected: "5511999999999",
		},
		{
			name:     "with parentheses",
			input:    "+55 (11) 99999-9999",
			expected: "5511999999999",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "letters only",
			input:    "abc",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePhone(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}
