package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single id", "331868", []string{"331868"}},
		{"two ids", "331868, 4711", []string{"331868", "4711"}},
		{"varied spacing", "1,  2 , 3", []string{"1", "2", "3"}},
		{"trailing comma", "1,", []string{"1"}},
		{"leading comma", ",2", []string{"2"}},
		{"only spaces", "   ", nil},
		{"comma only", ",", nil},
		{"multiple commas", ",,1,,2,,", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}
