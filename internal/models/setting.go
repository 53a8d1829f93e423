package models

import "time"

// Setting is a tenant-scoped configuration entry.
type Setting struct {
	TenantID  string    `db:"tenant_id" json:"-"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Setting keys understood by the application.
const (
	SettingMaxFeedbackPerCourse = "max_feedback_per_course"
	SettingUITheme              = "ui_theme"
)
