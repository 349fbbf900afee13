package models

import "time"

// SubjectStatistics is the published figure set for one subject of a plan.
// Max, Min and Avg are nil when the plan has no students.
type SubjectStatistics struct {
	Label    string   `json:"label"`
	FullMark float64  `json:"fullMark"`
	Max      *float64 `json:"max"`
	Min      *float64 `json:"min"`
	Avg      *float64 `json:"avg"`
}

// StatisticOverride holds manually entered values; a nil field keeps the computed value.
type StatisticOverride struct {
	Max *float64 `json:"max,omitempty"`
	Min *float64 `json:"min,omitempty"`
	Avg *float64 `json:"avg,omitempty"`
}

// PlanStatistics is the document stored per plan for the student-facing view.
type PlanStatistics struct {
	PlanKey   string                       `json:"planKey"`
	Label     string                       `json:"label"`
	Count     int                          `json:"count"`
	Subjects  map[string]SubjectStatistics `json:"subjects"`
	Custom    map[string]StatisticOverride `json:"custom"`
	UpdatedAt time.Time                    `json:"updatedAt"`
}

// SubjectAggregate accumulates raw figures for one subject.
type SubjectAggregate struct {
	Count int
	Sum   float64
	Max   float64
	Min   float64
}

// Add folds one score into the aggregate.
func (a *SubjectAggregate) Add(score float64) {
	if a.Count == 0 || score > a.Max {
		a.Max = score
	}
	if a.Count == 0 || score < a.Min {
		a.Min = score
	}
	a.Count++
	a.Sum += score
}

// Avg returns Sum/Count, or nil when nothing was added.
func (a SubjectAggregate) Avg() *float64 {
	if a.Count == 0 {
		return nil
	}
	avg := a.Sum / float64(a.Count)
	return &avg
}

// MaxValue returns Max, or nil when nothing was added.
func (a SubjectAggregate) MaxValue() *float64 {
	if a.Count == 0 {
		return nil
	}
	v := a.Max
	return &v
}

// MinValue returns Min, or nil when nothing was added.
func (a SubjectAggregate) MinValue() *float64 {
	if a.Count == 0 {
		return nil
	}
	v := a.Min
	return &v
}

// PlanAggregate is the computed, not yet published, figure set of one plan.
type PlanAggregate struct {
	PlanKey  string
	Count    int
	Subjects map[string]*SubjectAggregate
}
