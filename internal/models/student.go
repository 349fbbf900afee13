package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Scores maps subject keys to raw scores.
type Scores map[string]float64

// Score returns the score for key, treating missing and non-finite values as 0.
func (s Scores) Score(key string) float64 {
	v, ok := s[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// UnmarshalJSON accepts numbers and numeric strings; any other value is dropped.
func (s *Scores) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Scores, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case float64:
			out[key] = v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				out[key] = f
			}
		}
	}
	*s = out
	return nil
}

// Value implements driver.Valuer storing scores as JSONB.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	payload, err := json.Marshal(map[string]float64(s))
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (s *Scores) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = Scores{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scores: unsupported scan type %T", src)
	}
}

// Student is one examinee record keyed by exam ID.
type Student struct {
	StudentID string    `db:"id" json:"studentID"`
	ThID      string    `db:"th_id" json:"thID"`
	Prefix    string    `db:"prefix" json:"prefix"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	StudyPlan string    `db:"study_plan" json:"studyPlan"`
	Scores    Scores    `db:"scores" json:"scores"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName joins prefix, name and surname.
func (s Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{s.Prefix, s.Name, s.Surname} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	StudyPlan string
	Page      int
	PageSize  int
}

// StudentLookup selects a single student by any provided identifier.
type StudentLookup struct {
	ThID      string
	StudentID string
}
