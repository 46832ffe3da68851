// Package fetcher reads input workbooks from disk and downloads them from
// remote HTTP/FTP sources.
package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"
)

// Sheet holds one worksheet as a header row plus data rows, all as strings.
// Cell typing is applied downstream during coercion.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Workbook holds the sheets read from one XLSX file, keyed by sheet name.
type Workbook struct {
	Path   string
	Sheets map[string]*Sheet
}

// SheetNames lists the worksheet names present in the file.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for name := range w.Sheets {
		names = append(names, name)
	}
	return names
}

// ReadWorkbook reads the named sheets from an XLSX file. Sheets are parsed
// concurrently; a missing sheet is not an error here — structure validation
// reports it with full context.
func ReadWorkbook(ctx context.Context, path string, sheetNames []string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open workbook %s", path)
	}

	wb := &Workbook{Path: path, Sheets: make(map[string]*Sheet, len(sheetNames))}

	g, _ := errgroup.WithContext(ctx)
	parsed := make([]*Sheet, len(sheetNames))
	for i, name := range sheetNames {
		sheet, ok := f.Sheet[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			parsed[i] = readSheet(name, sheet)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range parsed {
		if s != nil {
			wb.Sheets[s.Name] = s
		}
	}
	return wb, nil
}

func readSheet(name string, sheet *xlsx.Sheet) *Sheet {
	s := &Sheet{Name: name}
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			s.Header = cells
			continue
		}
		if isEmptyRow(cells) {
			continue
		}
		s.Rows = append(s.Rows, cells)
	}
	return s
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// Column returns the values of the named header column, or nil if absent.
func (s *Sheet) Column(name string) []string {
	idx := -1
	for i, h := range s.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	vals := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			vals[i] = row[idx]
		}
	}
	return vals
}

// Cell returns the value at the named column for a data row, or "" when the
// row is ragged.
func (s *Sheet) Cell(row []string, name string) string {
	for i, h := range s.Header {
		if h == name {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
	}
	return ""
}

// FirstColumn returns the leftmost column's values regardless of header.
// The Customers sheet carries its entire payload in column A.
func (s *Sheet) FirstColumn() []string {
	vals := make([]string, 0, len(s.Rows)+1)
	if len(s.Header) > 0 && s.Header[0] != "" {
		vals = append(vals, s.Header[0])
	}
	for _, row := range s.Rows {
		if len(row) > 0 {
			vals = append(vals, row[0])
		}
	}
	return vals
}
