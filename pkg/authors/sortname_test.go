package authors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"Plato", "Plato"},
		{"Stephen King", "King, Stephen"},
		{"Ursula K. Le Guin", "Le Guin, Ursula K."},
		{"Ludwig van Beethoven", "Beethoven, Ludwig van"},
		{"Martin Luther King Jr.", "King, Martin Luther, Jr."},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SortName(tt.input))
		})
	}
}
