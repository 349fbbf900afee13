package dto

import "time"

// StudentRequest is the admin create/update payload.
type StudentRequest struct {
	ThID      string             `json:"thID" validate:"required"`
	StudentID string             `json:"studentID" validate:"required"`
	Prefix    string             `json:"prefix" validate:"required"`
	Name      string             `json:"name" validate:"required"`
	Surname   string             `json:"surname" validate:"required"`
	StudyPlan string             `json:"studyPlan" validate:"required"`
	Scores    map[string]float64 `json:"scores"`
}

// StudentQuery captures roster list parameters.
type StudentQuery struct {
	Search    string `form:"search"`
	StudyPlan string `form:"plan"`
	Page      int    `form:"page"`
	PageSize  int    `form:"limit"`
}

// StudentResponse is one roster row with its computed total.
type StudentResponse struct {
	StudentID     string             `json:"studentID"`
	ThID          string             `json:"thID"`
	Prefix        string             `json:"prefix"`
	Name          string             `json:"name"`
	Surname       string             `json:"surname"`
	StudyPlan     string             `json:"studyPlan"`
	PlanLabel     string             `json:"planLabel"`
	Scores        map[string]float64 `json:"scores"`
	Total         float64            `json:"total"`
	TotalFullMark float64            `json:"totalFullMark"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}
