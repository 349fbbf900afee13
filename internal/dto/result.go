package dto

import (
	"github.com/noah-isme/sma-score-portal/internal/models"
)

// ResultLookupRequest identifies the student looking up a result.
type ResultLookupRequest struct {
	ThID      string `json:"thID" validate:"omitempty,len=13,numeric"`
	StudentID string `json:"studentID"`
}

// SubjectScore is one subject row of a result. Score is nil when no score was recorded.
type SubjectScore struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	FullMark float64  `json:"fullMark"`
	Score    *float64 `json:"score"`
}

// PreOralSummary compares the written score to the pre-oral threshold.
type PreOralSummary struct {
	Percent   *float64             `json:"percent"`
	Threshold *float64             `json:"threshold"`
	Unit      models.ThresholdUnit `json:"unit"`
	Display   string               `json:"display"`
}

// ResultResponse is what a student sees after a successful lookup.
type ResultResponse struct {
	StudentID     string                 `json:"studentID"`
	ThID          string                 `json:"thID"`
	FullName      string                 `json:"fullName"`
	StudyPlan     string                 `json:"studyPlan"`
	PlanLabel     string                 `json:"planLabel"`
	Subjects      []SubjectScore         `json:"subjects"`
	Total         float64                `json:"total"`
	TotalFullMark float64                `json:"totalFullMark"`
	ScoreMode     models.ScoreMode       `json:"scoreMode"`
	OralMode      models.OralMode        `json:"oralMode"`
	PreOral       *PreOralSummary        `json:"preOral,omitempty"`
	Stats         *models.PlanStatistics `json:"stats"`
}
