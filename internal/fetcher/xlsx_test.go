package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Data")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"id", "name", "amount"},
		{"1", "alpha", "10.5"},
		{"2", "beta", ""},
		{"", "", ""}, // fully empty row drops out
		{"3", "gamma", "7"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}

	other, err := f.AddSheet("Other")
	require.NoError(t, err)
	row := other.AddRow()
	row.AddCell().SetString("ignored")

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	path := writeFixture(t)

	wb, err := ReadWorkbook(context.Background(), path, []string{"Data", "Absent"})
	require.NoError(t, err)

	require.Contains(t, wb.Sheets, "Data")
	assert.NotContains(t, wb.Sheets, "Absent", "missing sheets are reported by validation, not here")
	assert.NotContains(t, wb.Sheets, "Other", "unrequested sheets are not read")

	sheet := wb.Sheets["Data"]
	assert.Equal(t, []string{"id", "name", "amount"}, sheet.Header)
	require.Len(t, sheet.Rows, 3, "empty rows drop out")
	assert.Equal(t, []string{"3", "gamma", "7"}, sheet.Rows[2])
}

func TestReadWorkbook_MissingFile(t *testing.T) {
	_, err := ReadWorkbook(context.Background(), "nope.xlsx", []string{"Data"})
	assert.Error(t, err)
}

func TestSheet_Column(t *testing.T) {
	sheet := &Sheet{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}, {"3"}},
	}
	assert.Equal(t, []string{"2", ""}, sheet.Column("b"), "ragged rows read as empty")
	assert.Nil(t, sheet.Column("missing"))
}

func TestSheet_Cell(t *testing.T) {
	sheet := &Sheet{Header: []string{"a", "b"}}
	assert.Equal(t, "2", sheet.Cell([]string{"1", "2"}, "b"))
	assert.Equal(t, "", sheet.Cell([]string{"1"}, "b"))
	assert.Equal(t, "", sheet.Cell([]string{"1", "2"}, "zz"))
}

func TestSheet_FirstColumn_IncludesHeaderCell(t *testing.T) {
	sheet := &Sheet{
		Header: []string{"{C1_..._44927}"},
		Rows:   [][]string{{"{C2_..._44930}"}},
	}
	assert.Equal(t, []string{"{C1_..._44927}", "{C2_..._44930}"}, sheet.FirstColumn())
}
