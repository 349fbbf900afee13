package dto

// ColumnMapping is the letter form of an upload mapping.
//
// Columns maps a field (identity field or subject key) to a column letter A..Z. The values
// "" and "none" leave the field unmapped; fields absent from the map keep their default
// column. FixedPlan, when set, is applied to every row instead of a studyPlan column.
type ColumnMapping struct {
	StartRow  int               `json:"startRow"`
	SplitName bool              `json:"splitName"`
	FixedPlan string            `json:"fixedPlan,omitempty"`
	Columns   map[string]string `json:"columns"`
}

// MappingFieldsResponse lists the mappable fields and the default mapping.
type MappingFieldsResponse struct {
	Fields  []string      `json:"fields"`
	Default ColumnMapping `json:"default"`
}
