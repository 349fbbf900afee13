package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestColumnLetterRoundTrip(t *testing.T) {
	for index := 0; index < MaxColumns; index++ {
		letter, err := ColumnLetter(index)
		require.NoError(t, err)
		back, err := ColumnIndex(letter)
		require.NoError(t, err)
		assert.Equal(t, index, back, letter)
	}

	for _, letter := range []string{"A", "J", "K", "Z"} {
		index, err := ColumnIndex(letter)
		require.NoError(t, err)
		again, err := ColumnLetter(index)
		require.NoError(t, err)
		assert.Equal(t, letter, again)
	}
}

func TestColumnIndexValues(t *testing.T) {
	index, err := ColumnIndex("a")
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	index, err = ColumnIndex(" k ")
	require.NoError(t, err)
	assert.Equal(t, 10, index)
}

func TestColumnIndexRejectsMultiLetterColumns(t *testing.T) {
	for _, letter := range []string{"AA", "AB", "", "1", "-"} {
		_, err := ColumnIndex(letter)
		assert.Error(t, err, letter)
	}
	_, err := ColumnLetter(26)
	assert.Error(t, err)
	_, err = ColumnLetter(-1)
	assert.Error(t, err)
}

func TestCellAndBlank(t *testing.T) {
	row := []string{" 1 ", "", "x"}
	assert.Equal(t, "1", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 9))
	assert.False(t, IsBlank(row))
	assert.True(t, IsBlank([]string{" ", "\t", ""}))
	assert.True(t, IsBlank(nil))
}

func TestWorkbookRoundTrip(t *testing.T) {
	payload, err := WriteWorkbook(Sheet{
		Name: "scores",
		Rows: [][]string{
			{"thID", "studentID", "name"},
			{"1234567890123", "10001", "สมชาย ใจดี"},
		},
	})
	require.NoError(t, err)

	rows, err := ReadFirstSheet(bytes.NewReader(payload), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"thID", "studentID", "name"}, rows[0])
	assert.Equal(t, "สมชาย ใจดี", rows[1][2])
}

func TestReadFirstSheetEnforcesRowLimit(t *testing.T) {
	payload, err := WriteWorkbook(Sheet{Rows: [][]string{{"a"}, {"b"}, {"c"}}})
	require.NoError(t, err)

	_, err = ReadFirstSheet(bytes.NewReader(payload), ReadOptions{MaxRows: 2})
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestReadFirstSheetRejectsGarbage(t *testing.T) {
	_, err := ReadFirstSheet(bytes.NewReader([]byte("not a workbook")), ReadOptions{})
	assert.Error(t, err)
}

func formattedScoreBook(t *testing.T) []byte {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close() //nolint:errcheck

	integer, err := book.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	percent, err := book.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)

	require.NoError(t, book.SetCellValue("Sheet1", "A1", "67001"))
	require.NoError(t, book.SetCellValue("Sheet1", "K1", 27.5))
	require.NoError(t, book.SetCellStyle("Sheet1", "K1", "K1", integer))
	require.NoError(t, book.SetCellValue("Sheet1", "L1", 0.35))
	require.NoError(t, book.SetCellStyle("Sheet1", "L1", "L1", percent))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadFirstSheetReturnsStoredValuesOfFormattedCells(t *testing.T) {
	rows, err := ReadFirstSheet(bytes.NewReader(formattedScoreBook(t)), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "67001", Cell(rows[0], 0))
	assert.Equal(t, "27.5", Cell(rows[0], 10))
	assert.Equal(t, "0.35", Cell(rows[0], 11))
}

func TestReadFirstSheetStopsAtBlankRow(t *testing.T) {
	payload, err := WriteWorkbook(Sheet{Rows: [][]string{
		{"header"}, {"a"}, {"", ""}, {"note 1"}, {"note 2"}, {"note 3"}, {"note 4"},
	}})
	require.NoError(t, err)

	rows, err := ReadFirstSheet(bytes.NewReader(payload), ReadOptions{MaxRows: 2, StopAtBlankFrom: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, IsBlank(rows[2]))

	_, err = ReadFirstSheet(bytes.NewReader(payload), ReadOptions{MaxRows: 2})
	assert.ErrorIs(t, err, ErrTooManyRows)
}
