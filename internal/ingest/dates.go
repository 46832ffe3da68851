package ingest

import (
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30 rather than
// 1900-01-01: the format assumes 1900 was a leap year, and the shifted
// epoch compensates for the phantom Feb 29.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// FromSerial converts a spreadsheet serial day count to a calendar date.
// Fractional days carry through as time of day.
func FromSerial(serial float64) time.Time {
	return serialEpoch.Add(time.Duration(serial * float64(24*time.Hour)))
}

// ParseSerialCell converts a raw cell to a date via the serial epoch.
// Non-numeric, empty, or unparseable input yields nil, never an error.
func ParseSerialCell(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ParseDateCell(raw)
	}
	t := FromSerial(serial)
	return &t
}

// dateLayouts are tried in order when parsing free-form date text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseDateCell parses free-form date text. Unparseable input yields nil.
func ParseDateCell(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseAmountCell coerces a cell to a number. Un-coercible values become
// nil and are excluded from downstream sums.
func ParseAmountCell(raw string) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
