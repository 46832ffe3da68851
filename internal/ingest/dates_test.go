package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSerial(t *testing.T) {
	// Serial 2 is 1900-01-01: the epoch sits at 1899-12-30 to absorb the
	// phantom 1900 leap day.
	assert.Equal(t, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), FromSerial(2))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), FromSerial(45292))
}

func TestFromSerial_FractionalDays(t *testing.T) {
	got := FromSerial(45292.5)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), got)
}

func TestParseSerialCell(t *testing.T) {
	got := ParseSerialCell("45292")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, ParseSerialCell(""))
	assert.Nil(t, ParseSerialCell("not a date"))

	// Non-numeric input falls back to free-form date parsing.
	got = ParseSerialCell("2024-06-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseAmountCell(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"120.50", f(120.50)},
		{"$99.99", f(99.99)},
		{"1,250.00", f(1250)},
		{" 42 ", f(42)},
		{"", nil},
		{"abc", nil},
	}
	for _, tt := range tests {
		got := ParseAmountCell(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
		} else {
			require.NotNil(t, got, "input %q", tt.in)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func f(v float64) *float64 { return &v }
