package dto

import "github.com/noah-isme/sma-score-portal/internal/models"

// SettingsResponse bundles both settings documents for the admin screen.
type SettingsResponse struct {
	Login   models.LoginSettings   `json:"login"`
	Display models.DisplaySettings `json:"display"`
}
