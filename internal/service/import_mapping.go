package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/spreadsheet"
)

// DefaultStartRow skips the header row of the template.
const DefaultStartRow = 2

// columnUnmapped is the letter-form value of an unmapped field.
const columnUnmapped = "none"

// Template columns of the identity fields. C to F are spacer columns kept from the legacy sheet.
var defaultIdentityColumns = map[string]int{
	models.FieldThID:      0,
	models.FieldStudentID: 1,
	models.FieldPrefix:    6,
	models.FieldName:      7,
	models.FieldSurname:   8,
	models.FieldStudyPlan: 9,
}

// firstSubjectColumn is column K.
const firstSubjectColumn = 10

// MappingFields lists every mappable field: identity fields first, then subject keys in
// declaration order.
func MappingFields(cfg models.PlanConfig) []string {
	fields := make([]string, 0, len(models.IdentityFields)+len(cfg.SubjectCatalog()))
	fields = append(fields, models.IdentityFields...)
	for _, key := range cfg.SubjectKeys() {
		if _, identity := defaultIdentityColumns[key]; identity {
			continue
		}
		fields = append(fields, key)
	}
	return fields
}

// DefaultMapping is the template layout. Subjects are laid out from column K onward and any
// subject that would land beyond Z stays unmapped.
func DefaultMapping(cfg models.PlanConfig) models.UploadMapping {
	columns := make(map[string]int, len(defaultIdentityColumns))
	for field, idx := range defaultIdentityColumns {
		columns[field] = idx
	}
	fields := MappingFields(cfg)
	for i, key := range fields[len(models.IdentityFields):] {
		idx := firstSubjectColumn + i
		if idx >= spreadsheet.MaxColumns {
			columns[key] = models.ColumnNone
			continue
		}
		columns[key] = idx
	}
	return models.UploadMapping{StartRow: DefaultStartRow, Columns: columns}
}

// ResolveMapping turns a letter-form mapping into column indexes on top of the default layout.
func ResolveMapping(cfg models.PlanConfig, req dto.ColumnMapping) (models.UploadMapping, error) {
	mapping := DefaultMapping(cfg)
	mapping.SplitName = req.SplitName
	problems := make(map[string]string)

	known := make(map[string]struct{})
	for _, field := range MappingFields(cfg) {
		known[field] = struct{}{}
	}

	for field, raw := range req.Columns {
		if _, ok := known[field]; !ok {
			problems[field] = "unknown field"
			continue
		}
		letter := strings.TrimSpace(raw)
		if letter == "" || strings.EqualFold(letter, columnUnmapped) {
			mapping.Columns[field] = models.ColumnNone
			continue
		}
		idx, err := spreadsheet.ColumnIndex(letter)
		if err != nil {
			problems[field] = err.Error()
			continue
		}
		mapping.Columns[field] = idx
	}

	switch {
	case req.StartRow == 0:
		mapping.StartRow = DefaultStartRow
	case req.StartRow < 1:
		problems["startRow"] = "must be 1 or greater"
	default:
		mapping.StartRow = req.StartRow
	}

	if fixed := models.NormalizePlanKey(req.FixedPlan); fixed != "" {
		if !cfg.HasPlan(fixed) {
			problems["fixedPlan"] = fmt.Sprintf("unknown study plan %s", fixed)
		}
		mapping.FixedPlan = fixed
		mapping.Columns[models.FieldStudyPlan] = models.ColumnNone
	}

	if !mapping.Mapped(models.FieldStudentID) {
		problems[models.FieldStudentID] = "exam ID column is required"
	}
	if mapping.FixedPlan == "" && !mapping.Mapped(models.FieldStudyPlan) {
		problems[models.FieldStudyPlan] = "map a column or choose a fixed plan"
	}

	if len(problems) > 0 {
		return models.UploadMapping{}, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid column mapping"), problems)
	}
	return mapping, nil
}

// MappingLetters renders a resolved mapping back into letter form.
func MappingLetters(mapping models.UploadMapping) dto.ColumnMapping {
	columns := make(map[string]string, len(mapping.Columns))
	for field, idx := range mapping.Columns {
		letter, err := spreadsheet.ColumnLetter(idx)
		if err != nil {
			columns[field] = columnUnmapped
			continue
		}
		columns[field] = letter
	}
	return dto.ColumnMapping{
		StartRow:  mapping.StartRow,
		SplitName: mapping.SplitName,
		FixedPlan: mapping.FixedPlan,
		Columns:   columns,
	}
}
