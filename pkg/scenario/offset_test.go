package scenario

import "testing"

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{
			name:     "prefixed minutes and seconds",
			input:    "T+05:30",
			expected: 330,
		},
		{
			name:     "leading zeros",
			input:    "T+09:05",
			expected: 545,
		},
		{
			name:     "bare seconds",
			input:    "45",
			expected: 45,
		},
		{
			name:     "prefixed bare seconds",
			input:    "T+90",
			expected: 90,
		},
		{
			name:     "hours minutes seconds",
			input:    "1:02:03",
			expected: 3723,
		},
		{
			name:     "zero offset",
			input:    "T+00:00",
			expected: 0,
		},
		{
			name:     "empty string",
			input:    "",
			expected: 0,
		},
		{
			name:     "prefix only",
			input:    "T+",
			expected: 0,
		},
		{
			name:     "non numeric",
			input:    "garbage",
			expected: 0,
		},
		{
			name:     "non numeric part",
			input:    "T+05:xx",
			expected: 0,
		},
		{
			name:     "too many parts",
			input:    "1:2:3:4",
			expected: 0,
		},
		{
			name:     "surrounding whitespace",
			input:    "  T+02:00  ",
			expected: 120,
		},
		{
			name:     "all zeros part",
			input:    "T+00:30",
			expected: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOffset(tt.input); got != tt.expected {
				t.Errorf("ParseOffset(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}
