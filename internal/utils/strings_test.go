package utils

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "only separators",
			input:    " , ; ",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "SPY",
			expected: []string{"SPY"},
		},
		{
			name:     "commas with spaces",
			input:    "AAPL, MSFT",
			expected: []string{"AAPL", "MSFT"},
		},
		{
			name:     "mixed separators",
			input:    "aapl;msft  spy,QQQ",
			expected: []string{"aapl", "msft", "spy", "QQQ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseList(tt.input))
		})
	}
}

func TestUniqueTickers(t *testing.T) {
	assert.Equal(t, []string{"SPY", "AAPL"}, UniqueTickers([]string{" spy", "aapl", "SPY", ""}))
	assert.Empty(t, UniqueTickers(nil))
}

func TestOperationTimer(t *testing.T) {
	done := OperationTimer("noop", zerolog.Nop())
	assert.NotPanics(t, done)
}
