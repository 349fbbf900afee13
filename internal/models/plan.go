package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Subject is one examined subject of a study plan. Key indexes the student's scores map.
type Subject struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	FullMark float64 `json:"fullMark"`
}

// StudyPlan groups the subjects examined for one admission track.
type StudyPlan struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Subjects []Subject `json:"subjects"`
}

// PlanConfig is the ordered set of study plans in effect for one request.
type PlanConfig struct {
	Plans []StudyPlan
}

type planDocumentEntry struct {
	Label    string    `json:"label"`
	Subjects []Subject `json:"subjects"`
}

// MarshalJSON writes the stored document shape {planKey: {label, subjects}} in plan order.
func (c PlanConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, plan := range c.Plans {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(plan.Key)
		if err != nil {
			return nil, err
		}
		subjects := plan.Subjects
		if subjects == nil {
			subjects = []Subject{}
		}
		body, err := json.Marshal(planDocumentEntry{Label: plan.Label, Subjects: subjects})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the stored document shape keeping the document's plan order.
func (c *PlanConfig) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode plan config: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("plan config must be a JSON object")
	}

	plans := make([]StudyPlan, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode plan key: %w", err)
		}
		key, _ := tok.(string)
		var entry planDocumentEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("decode plan %s: %w", key, err)
		}
		plans = append(plans, StudyPlan{Key: key, Label: entry.Label, Subjects: entry.Subjects})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode plan config: %w", err)
	}

	c.Plans = plans
	return nil
}

// NormalizePlanKey trims the plan key as read from a row or record.
func NormalizePlanKey(key string) string {
	return strings.TrimSpace(key)
}

// Plan returns the plan registered under key.
func (c PlanConfig) Plan(key string) (StudyPlan, bool) {
	key = NormalizePlanKey(key)
	for _, plan := range c.Plans {
		if plan.Key == key {
			return plan, true
		}
	}
	return StudyPlan{}, false
}

// HasPlan reports whether key is a registered plan.
func (c PlanConfig) HasPlan(key string) bool {
	_, ok := c.Plan(key)
	return ok
}

// PlanKeys lists the registered plan keys in declaration order.
func (c PlanConfig) PlanKeys() []string {
	keys := make([]string, 0, len(c.Plans))
	for _, plan := range c.Plans {
		keys = append(keys, plan.Key)
	}
	return keys
}

// Label returns the plan label, falling back to the key itself.
func (c PlanConfig) Label(key string) string {
	plan, ok := c.Plan(key)
	if !ok || plan.Label == "" {
		return NormalizePlanKey(key)
	}
	return plan.Label
}

// Subjects returns the plan's subjects, or an empty list for unknown plans.
func (c PlanConfig) Subjects(key string) []Subject {
	plan, ok := c.Plan(key)
	if !ok {
		return []Subject{}
	}
	return plan.Subjects
}

// SubjectCatalog is the union of subjects across plans, first occurrence wins.
func (c PlanConfig) SubjectCatalog() []Subject {
	seen := make(map[string]struct{})
	catalog := make([]Subject, 0)
	for _, plan := range c.Plans {
		for _, subject := range plan.Subjects {
			if _, ok := seen[subject.Key]; ok {
				continue
			}
			seen[subject.Key] = struct{}{}
			catalog = append(catalog, subject)
		}
	}
	return catalog
}

// SubjectKeys returns the keys of SubjectCatalog.
func (c PlanConfig) SubjectKeys() []string {
	catalog := c.SubjectCatalog()
	keys := make([]string, len(catalog))
	for i, subject := range catalog {
		keys[i] = subject.Key
	}
	return keys
}

// FullMark sums the full marks of the plan's subjects.
func (c PlanConfig) FullMark(key string) float64 {
	var total float64
	for _, subject := range c.Subjects(key) {
		total += subject.FullMark
	}
	return total
}

// Total sums the scores of the plan's subjects. Missing or non-finite scores count as 0 and
// keys outside the plan are ignored.
func (c PlanConfig) Total(planKey string, scores Scores) float64 {
	var total float64
	for _, subject := range c.Subjects(planKey) {
		total += scores.Score(subject.Key)
	}
	return total
}

// CheckStructure is the minimum a stored document needs to replace the defaults: at least one
// plan, every plan with subjects, every subject with a key.
func (c PlanConfig) CheckStructure() error {
	if len(c.Plans) == 0 {
		return errors.New("plan config has no plans")
	}
	for _, plan := range c.Plans {
		if NormalizePlanKey(plan.Key) == "" {
			return errors.New("plan config contains an empty plan key")
		}
		if len(plan.Subjects) == 0 {
			return fmt.Errorf("plan %s has no subjects", plan.Key)
		}
		for _, subject := range plan.Subjects {
			if strings.TrimSpace(subject.Key) == "" {
				return fmt.Errorf("plan %s has a subject without key", plan.Key)
			}
		}
	}
	return nil
}

// Validate applies the rules enforced when an admin saves a new plan set.
func (c PlanConfig) Validate() error {
	if err := c.CheckStructure(); err != nil {
		return err
	}
	planKeys := make(map[string]struct{}, len(c.Plans))
	for _, plan := range c.Plans {
		if _, dup := planKeys[plan.Key]; dup {
			return fmt.Errorf("duplicate plan key %s", plan.Key)
		}
		planKeys[plan.Key] = struct{}{}

		subjectKeys := make(map[string]struct{}, len(plan.Subjects))
		for _, subject := range plan.Subjects {
			if _, dup := subjectKeys[subject.Key]; dup {
				return fmt.Errorf("plan %s: duplicate subject key %s", plan.Key, subject.Key)
			}
			subjectKeys[subject.Key] = struct{}{}
			if subject.FullMark <= 0 || math.IsInf(subject.FullMark, 0) || math.IsNaN(subject.FullMark) {
				return fmt.Errorf("plan %s: subject %s needs a positive full mark", plan.Key, subject.Key)
			}
		}
	}
	return nil
}

// Normalized trims plan and subject keys.
func (c PlanConfig) Normalized() PlanConfig {
	plans := make([]StudyPlan, len(c.Plans))
	for i, plan := range c.Plans {
		subjects := make([]Subject, len(plan.Subjects))
		for j, subject := range plan.Subjects {
			subject.Key = strings.TrimSpace(subject.Key)
			subject.Label = strings.TrimSpace(subject.Label)
			subjects[j] = subject
		}
		plans[i] = StudyPlan{
			Key:      NormalizePlanKey(plan.Key),
			Label:    strings.TrimSpace(plan.Label),
			Subjects: subjects,
		}
	}
	return PlanConfig{Plans: plans}
}

// DefaultPlanConfig is the compiled-in plan set used until an admin saves a replacement.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{Plans: []StudyPlan{
		{
			Key:   "ISMT",
			Label: "โครงการห้องเรียนพิเศษวิทยาศาสตร์ คณิตศาสตร์และเทคโนโลยี (ISMT)",
			Subjects: []Subject{
				{Key: "math", Label: "คณิตศาสตร์", FullMark: 40},
				{Key: "science", Label: "วิทยาศาสตร์", FullMark: 60},
				{Key: "english", Label: "ภาษาอังกฤษ", FullMark: 50},
			},
		},
		{
			Key:   "ILEC",
			Label: "โครงการห้องเรียนพิเศษภาษาต่างประเทศ (อังกฤษ-จีน) (ILEC)",
			Subjects: []Subject{
				{Key: "social", Label: "สังคมศึกษา", FullMark: 60},
				{Key: "chinese", Label: "ภาษาจีน", FullMark: 40},
				{Key: "thai", Label: "ภาษาไทย", FullMark: 60},
				{Key: "english", Label: "ภาษาอังกฤษ", FullMark: 50},
			},
		},
		{
			Key:   "IDGT",
			Label: "โครงการห้องเรียนพิเศษเทคโนโลยีดิจิทัล (IDGT)",
			Subjects: []Subject{
				{Key: "science", Label: "วิทยาศาสตร์", FullMark: 60},
				{Key: "english", Label: "ภาษาอังกฤษ", FullMark: 50},
				{Key: "technology", Label: "เทคโนโลยี", FullMark: 80},
			},
		},
	}}
}
