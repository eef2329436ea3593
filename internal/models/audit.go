package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditRecord is the immutable compliance row written once per completed
// orchestration cycle. It is never read back into the live pipeline.
type AuditRecord struct {
	ID                   string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID               string         `gorm:"column:user_id;type:text;index" json:"user_id"`
	ActionType           string         `gorm:"column:action_type;type:text" json:"action_type"` // "ai_suggestion"
	AIOutput             string         `gorm:"column:ai_output;type:text" json:"ai_output"`
	Confidence           int            `gorm:"column:confidence" json:"confidence"`
	RequiresConfirmation bool           `gorm:"column:requires_confirmation" json:"requires_confirmation"`
	Dashboard            datatypes.JSON `gorm:"column:dashboard;type:jsonb" json:"dashboard"`
	Source               string         `gorm:"column:source;type:text" json:"source"`
	Model                string         `gorm:"column:model;type:text" json:"model"`
	Prompt               string         `gorm:"column:prompt;type:text" json:"prompt"`
	CreatedAt            time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (AuditRecord) TableName() string { return "audit_records" }
