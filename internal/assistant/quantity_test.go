package assistant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		input string
		qty   int
		ok    bool
	}{
		{"add 5 apples", 5, true},
		{"add two dozen eggs", 24, true},
		{"a dozen roses please", 12, true},
		{"half dozen bagels", 6, true},
		{"add twenty bottles", 20, true},
		{"give me three", 3, true},
		{"ADD TWO items", 2, true},
		{"add some milk", 0, false},
		{"checkout now", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		qty, ok := ExtractQuantity(tt.input)
		require.Equal(t, tt.ok, ok, "input=%q", tt.input)
		require.Equal(t, tt.qty, qty, "input=%q", tt.input)
	}
}

func TestExtractQuantityDozenBeforeDigits(t *testing.T) {
	// "2 dozen" must multiply, not read the bare digit
	qty, ok := ExtractQuantity("add 2 dozen donuts")
	require.True(t, ok)
	require.Equal(t, 24, qty)
}
