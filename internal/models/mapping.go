package models

// Identity fields recognised by the column mapping.
const (
	FieldThID      = "thID"
	FieldStudentID = "studentID"
	FieldPrefix    = "prefix"
	FieldName      = "name"
	FieldSurname   = "surname"
	FieldStudyPlan = "studyPlan"
)

// IdentityFields lists the identity fields in template order.
var IdentityFields = []string{FieldThID, FieldStudentID, FieldPrefix, FieldName, FieldSurname, FieldStudyPlan}

// ColumnNone marks a field that is not read from the sheet.
const ColumnNone = -1

// UploadMapping is a resolved field to zero-based column table for one import.
type UploadMapping struct {
	// StartRow is the 1-based sheet row of the first data row.
	StartRow  int            `json:"startRow"`
	SplitName bool           `json:"splitName"`
	FixedPlan string         `json:"fixedPlan,omitempty"`
	Columns   map[string]int `json:"columns"`
}

// Column returns the column of field, or ColumnNone.
func (m UploadMapping) Column(field string) int {
	idx, ok := m.Columns[field]
	if !ok {
		return ColumnNone
	}
	return idx
}

// Mapped reports whether field is read from a column.
func (m UploadMapping) Mapped(field string) bool {
	return m.Column(field) != ColumnNone
}
