package models

import "time"

// ImportRowStatus classifies the outcome of one sheet row.
type ImportRowStatus string

const (
	// ImportRowBlank ends the import; rows after it are not read.
	ImportRowBlank   ImportRowStatus = "blank"
	ImportRowInvalid ImportRowStatus = "invalid"
	ImportRowWritten ImportRowStatus = "written"
	ImportRowFailed  ImportRowStatus = "failed"
	// ImportRowValid is reported instead of written on a dry run.
	ImportRowValid ImportRowStatus = "valid"
)

// ImportRowResult reports one processed row.
type ImportRowResult struct {
	Row       int             `json:"row"`
	Status    ImportRowStatus `json:"status"`
	Message   string          `json:"message"`
	StudentID string          `json:"studentID,omitempty"`
	StudyPlan string          `json:"studyPlan,omitempty"`
	Total     *float64        `json:"total,omitempty"`
	Missing   []string        `json:"missing,omitempty"`
}

// ImportReport summarises an upload. StoppedAtRow is the blank row that ended it, 0 when the
// sheet ran out first.
type ImportReport struct {
	BatchID      string            `json:"batchId"`
	FileName     string            `json:"fileName"`
	ArchivedAs   string            `json:"archivedAs,omitempty"`
	StartRow     int               `json:"startRow"`
	DryRun       bool              `json:"dryRun"`
	Rows         []ImportRowResult `json:"rows"`
	Written      int               `json:"written"`
	Valid        int               `json:"valid"`
	Invalid      int               `json:"invalid"`
	Failed       int               `json:"failed"`
	StoppedAtRow int               `json:"stoppedAtRow"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
}
