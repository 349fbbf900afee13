// Package spreadsheet reads and writes the .xlsx workbooks exchanged with school staff.
package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxColumns is the number of addressable columns. Only single letters A..Z are supported.
const MaxColumns = 26

// ColumnIndex converts a single column letter into a zero-based index (A = 0).
func ColumnIndex(letter string) (int, error) {
	name := strings.ToUpper(strings.TrimSpace(letter))
	if len(name) != 1 || name[0] < 'A' || name[0] > 'Z' {
		return 0, fmt.Errorf("column %q must be a single letter A-Z", letter)
	}
	number, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", letter, err)
	}
	return number - 1, nil
}

// ColumnLetter converts a zero-based index back into its column letter.
func ColumnLetter(index int) (string, error) {
	if index < 0 || index >= MaxColumns {
		return "", fmt.Errorf("column index %d outside A-Z", index)
	}
	return excelize.ColumnNumberToName(index + 1)
}

// Cell returns the trimmed value at index, or "" when the row is shorter.
func Cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// IsBlank reports whether every cell of the row is empty or whitespace.
func IsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
