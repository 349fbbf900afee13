package spreadsheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for workbooks without any worksheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrTooManyRows is returned when a sheet exceeds the configured row limit.
var ErrTooManyRows = errors.New("sheet exceeds row limit")

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadOptions bounds how much of the first sheet ReadFirstSheet returns.
type ReadOptions struct {
	// MaxRows limits the rows read. A terminating blank row does not count. Zero disables the limit.
	MaxRows int
	// StopAtBlankFrom ends the read at the first blank row numbered (1-based) at or after it.
	// That blank row is the last one returned. Zero reads the whole sheet.
	StopAtBlankFrom int
}

// ReadFirstSheet parses an .xlsx stream and returns the rows of its first sheet.
// Cells are returned as stored values, not as their number-formatted display text.
func ReadFirstSheet(r io.Reader, opts ReadOptions) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close() //nolint:errcheck

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	iter, err := book.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	defer iter.Close() //nolint:errcheck

	var rows [][]string
	last := 0
	for iter.Next() {
		row, err := iter.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s row %d: %w", sheets[0], len(rows)+1, err)
		}
		rows = append(rows, row)
		if opts.StopAtBlankFrom > 0 && len(rows) >= opts.StopAtBlankFrom && IsBlank(row) {
			return rows, nil
		}
		if len(row) > 0 {
			last = len(rows)
		}
		if opts.MaxRows > 0 && last > opts.MaxRows {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManyRows, opts.MaxRows)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows[:last], nil
}

// Sheet is a named grid of string cells written from A1.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteWorkbook renders sheets into an .xlsx payload. The first sheet is active.
func WriteWorkbook(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	book := excelize.NewFile()
	defer book.Close() //nolint:errcheck

	defaultSheet := book.GetSheetName(0)
	for i, sheet := range sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := book.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := book.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			values := make([]interface{}, len(row))
			for c, value := range row {
				values[c] = value
			}
			if err := book.SetSheetRow(name, cell, &values); err != nil {
				return nil, fmt.Errorf("write %s!%s: %w", name, cell, err)
			}
		}
	}
	book.SetActiveSheet(0)

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
