package models

// Document keys of the config_documents table.
const (
	DocumentPlanConfig      = "planConfig"
	DocumentSettings        = "settings"
	DocumentDisplaySettings = "displaySettings"
)

// LoginMode selects the identifier a student must present to see a result.
type LoginMode string

const (
	LoginModeThID      LoginMode = "thID"
	LoginModeStudentID LoginMode = "studentID"
)

// ScoreMode selects how scores are presented to students.
type ScoreMode string

const (
	ScoreModeRaw     ScoreMode = "raw"
	ScoreModePercent ScoreMode = "percent"
)

// OralMode describes whether an oral examination is part of the result.
type OralMode string

const (
	OralModeNone        OralMode = "no"
	OralModeNotIncluded OralMode = "not_included"
	OralModeIncluded    OralMode = "included"
)

// ThresholdUnit is the unit of the pre-oral pass threshold.
type ThresholdUnit string

const (
	ThresholdUnitPercent ThresholdUnit = "percent"
	ThresholdUnitScore   ThresholdUnit = "score"
)

// LoginSettings is the settings document.
type LoginSettings struct {
	LoginMode LoginMode `json:"loginMode" validate:"required,oneof=thID studentID"`
}

// DisplaySettings is the displaySettings document.
type DisplaySettings struct {
	ScoreMode        ScoreMode     `json:"scoreMode" validate:"required,oneof=raw percent"`
	OralMode         OralMode      `json:"oralMode" validate:"required,oneof=no not_included included"`
	PreOralThreshold *float64      `json:"preOralThreshold" validate:"omitempty,gte=0"`
	PreOralUnit      ThresholdUnit `json:"preOralUnit" validate:"required,oneof=percent score"`
}

// DefaultLoginSettings applies when no settings document exists.
func DefaultLoginSettings() LoginSettings {
	return LoginSettings{LoginMode: LoginModeThID}
}

// DefaultDisplaySettings applies when no displaySettings document exists.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		ScoreMode:   ScoreModeRaw,
		OralMode:    OralModeNone,
		PreOralUnit: ThresholdUnitPercent,
	}
}

// WithDefaults fills fields missing from a partially written document.
func (d DisplaySettings) WithDefaults() DisplaySettings {
	defaults := DefaultDisplaySettings()
	if d.ScoreMode == "" {
		d.ScoreMode = defaults.ScoreMode
	}
	if d.OralMode == "" {
		d.OralMode = defaults.OralMode
	}
	if d.PreOralUnit == "" {
		d.PreOralUnit = defaults.PreOralUnit
	}
	return d
}
