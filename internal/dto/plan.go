package dto

// PlanSubjectPayload is one subject of a plan as exchanged over the API.
type PlanSubjectPayload struct {
	Key      string  `json:"key" validate:"required"`
	Label    string  `json:"label" validate:"required"`
	FullMark float64 `json:"fullMark" validate:"gt=0"`
}

// PlanPayload is one study plan as exchanged over the API.
type PlanPayload struct {
	Key      string               `json:"key" validate:"required"`
	Label    string               `json:"label"`
	Subjects []PlanSubjectPayload `json:"subjects" validate:"required,min=1,dive"`
}

// PlanConfigRequest replaces the whole plan set.
type PlanConfigRequest struct {
	Plans []PlanPayload `json:"plans" validate:"required,min=1,dive"`
}

// PlanConfigResponse lists the plans in effect, in declaration order.
type PlanConfigResponse struct {
	Plans []PlanPayload `json:"plans"`
}
