package dto

import "github.com/noah-isme/sma-score-portal/internal/models"

// StatisticOverridesRequest replaces the custom values of one plan.
type StatisticOverridesRequest struct {
	Custom map[string]models.StatisticOverride `json:"custom"`
}
