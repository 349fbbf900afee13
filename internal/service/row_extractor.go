package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/pkg/spreadsheet"
)

// ExtractedRow is the classification of one sheet row.
type ExtractedRow struct {
	Blank       bool
	Missing     []string
	InvalidPlan string
	Student     models.Student
	Total       float64
}

// Valid reports whether the row may be written.
func (r ExtractedRow) Valid() bool {
	return !r.Blank && len(r.Missing) == 0 && r.InvalidPlan == ""
}

// Problem describes why the row cannot be written, or "" for a valid row.
func (r ExtractedRow) Problem() string {
	switch {
	case r.Blank:
		return "blank row"
	case len(r.Missing) > 0:
		return "missing fields: " + strings.Join(r.Missing, ", ")
	case r.InvalidPlan != "":
		return fmt.Sprintf("unknown study plan %s", r.InvalidPlan)
	default:
		return ""
	}
}

// ExtractRow validates a row against the mapping and reads the scores of its plan.
// Missing fields take precedence over an unknown plan.
func ExtractRow(cfg models.PlanConfig, mapping models.UploadMapping, row []string) ExtractedRow {
	if spreadsheet.IsBlank(row) {
		return ExtractedRow{Blank: true}
	}

	values := make(map[string]string, len(models.IdentityFields))
	for _, field := range models.IdentityFields {
		if mapping.Mapped(field) {
			values[field] = spreadsheet.Cell(row, mapping.Column(field))
		}
	}
	if mapping.SplitName {
		values[models.FieldName], values[models.FieldSurname] = splitName(values[models.FieldName])
	}
	plan := models.NormalizePlanKey(values[models.FieldStudyPlan])
	if mapping.FixedPlan != "" {
		plan = mapping.FixedPlan
	}

	var result ExtractedRow
	for _, field := range models.IdentityFields {
		if !fieldRequired(mapping, field) {
			continue
		}
		if values[field] == "" {
			result.Missing = append(result.Missing, field)
		}
	}
	if len(result.Missing) == 0 && !cfg.HasPlan(plan) {
		result.InvalidPlan = plan
	}

	result.Student = models.Student{
		StudentID: values[models.FieldStudentID],
		ThID:      values[models.FieldThID],
		Prefix:    values[models.FieldPrefix],
		Name:      values[models.FieldName],
		Surname:   values[models.FieldSurname],
		StudyPlan: plan,
	}
	if !result.Valid() {
		return result
	}

	scores := make(models.Scores, len(cfg.Subjects(plan)))
	for _, subject := range cfg.Subjects(plan) {
		var score float64
		if mapping.Mapped(subject.Key) {
			score = parseScore(spreadsheet.Cell(row, mapping.Column(subject.Key)))
		}
		scores[subject.Key] = score
	}
	result.Student.Scores = scores
	result.Total = cfg.Total(plan, scores)
	return result
}

func fieldRequired(mapping models.UploadMapping, field string) bool {
	switch field {
	case models.FieldSurname:
		if mapping.SplitName {
			return false
		}
	case models.FieldStudyPlan:
		if mapping.FixedPlan != "" {
			return false
		}
	}
	return mapping.Mapped(field)
}

// splitName splits on the first space; the remainder, spaces included, is the surname.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	idx := strings.Index(full, " ")
	if idx < 0 {
		return full, ""
	}
	return full[:idx], full[idx+1:]
}

// parseScore reads a numeric cell. Blank or non-numeric cells score 0.
func parseScore(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
