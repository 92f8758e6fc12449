package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnum(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"sci-fi", "SCI_FI"},
		{"SCI_FI", "SCI_FI"},
		{"  Slice of Life ", "SLICE_OF_LIFE"},
		{"slice__of--life", "SLICE_OF_LIFE"},
		{"R-18", "R_18"},
		{"r_18", "R_18"},
		{"Wúxiá", "WUXIA"},
		{"completed", "COMPLETED"},
		{"!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Enum(tt.input))
		})
	}
}

func TestEnums(t *testing.T) {
	assert.Nil(t, Enums(nil))
	assert.Equal(t, []string{"ACTION", "MARTIAL_ARTS"}, Enums([]string{"action", " ", "martial arts"}))
	assert.Empty(t, Enums([]string{"--"}))
}
