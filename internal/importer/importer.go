// Package importer reads student rosters from .xlsx workbooks.
//
// Expected layout of the first sheet:
//
//	| Name   | Email            | Gender |
//	| Jamila | jamila@gmail.com | FEMALE |
//
// The first row is a header and is skipped. Blank rows are ignored.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/student-management/internal/types"
)

// ErrNoSheets is returned for a workbook without any worksheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// Row is one parsed data row. Number is the 1-based spreadsheet row, so
// problems can be reported in terms the uploader recognises.
type Row struct {
	Number  int
	Student types.Student
}

// ParseWorkbook reads every data row of the first sheet. It does not
// validate the values; that is the caller's job.
func ParseWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	parsed := make([]Row, 0, len(rows))
	for i, cells := range rows {
		if i == 0 {
			continue // header
		}
		if isBlank(cells) {
			continue
		}

		parsed = append(parsed, Row{
			Number: i + 1,
			Student: types.Student{
				Name:   cell(cells, 0),
				Email:  cell(cells, 1),
				Gender: types.Gender(strings.ToUpper(cell(cells, 2))),
			},
		})
	}

	return parsed, nil
}

// cell returns the trimmed value at idx; GetRows drops trailing empty cells.
func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
