package domain

import "time"

// SettingsID is the partition key of the single site-settings document.
const SettingsID = "site"

type Settings struct {
	SettingsID      string    `json:"-" dynamodbav:"settings_id"`
	SiteName        string    `json:"site_name" dynamodbav:"site_name"`
	SupportEmail    string    `json:"support_email" dynamodbav:"support_email"`
	SupportPhone    string    `json:"support_phone" dynamodbav:"support_phone"`
	Currency        string    `json:"currency" dynamodbav:"currency"`
	MaintenanceMode bool      `json:"maintenance_mode" dynamodbav:"maintenance_mode"`
	UpdatedAt       time.Time `json:"updated" dynamodbav:"updated_at"`
}

// DefaultSettings is written the first time settings are read.
func DefaultSettings(now time.Time) *Settings {
	return &Settings{
		SettingsID:   SettingsID,
		SiteName:     "Home Services",
		SupportEmail: "support@example.com",
		Currency:     "INR",
		UpdatedAt:    now,
	}
}

// UpdateSettingsRequest enumerates the patchable settings fields.
type UpdateSettingsRequest struct {
	SiteName        *string `json:"site_name" validate:"omitempty,min=1,max=120"`
	SupportEmail    *string `json:"support_email" validate:"omitempty,email"`
	SupportPhone    *string `json:"support_phone" validate:"omitempty,max=32"`
	Currency        *string `json:"currency" validate:"omitempty,len=3,uppercase"`
	MaintenanceMode *bool   `json:"maintenance_mode"`
}
