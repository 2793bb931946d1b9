package model

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettings is per-tenant configuration stored inside the tenant's own
// schema. TenantID references the directory row by raw identifier only: a
// foreign key cannot cross the schema boundary, so referential integrity is
// maintained by the provisioning flow.
type TenantSettings struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"type:uuid;uniqueIndex;not null"`

	// Branding
	PrimaryColor   string `json:"primary_color" gorm:"type:varchar(7);default:'#007bff'"`
	SecondaryColor string `json:"secondary_color" gorm:"type:varchar(7);default:'#6c757d'"`
	CustomCSS      string `json:"custom_css" gorm:"type:text"`

	// Email settings
	FromEmail      string `json:"from_email" gorm:"type:varchar(255)"`
	EmailSignature string `json:"email_signature" gorm:"type:text"`

	// Interview settings
	DefaultInterviewDuration int  `json:"default_interview_duration" gorm:"default:60"`
	AllowCodeExecution       bool `json:"allow_code_execution" gorm:"default:true"`
	RequireWebcam            bool `json:"require_webcam" gorm:"default:false"`
	AutoSubmitOnTimeEnd      bool `json:"auto_submit_on_time_end" gorm:"default:true"`

	// Grading settings
	EnableAIGrading       bool    `json:"enable_ai_grading" gorm:"default:true"`
	AIGradingModel        string  `json:"ai_grading_model" gorm:"type:varchar(50);default:'gpt-3.5-turbo'"`
	ManualReviewThreshold float64 `json:"manual_review_threshold" gorm:"default:0.7"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns an unqualified name so the row lands in the schema
// selected by the bound connection's search_path.
func (TenantSettings) TableName() string {
	return "tenant_settings"
}

// NewDefaultSettings returns the settings row written into a freshly
// provisioned tenant schema.
func NewDefaultSettings(tenantID uuid.UUID) *TenantSettings {
	return &TenantSettings{
		TenantID:                 tenantID,
		PrimaryColor:             "#007bff",
		SecondaryColor:           "#6c757d",
		DefaultInterviewDuration: 60,
		AllowCodeExecution:       true,
		AutoSubmitOnTimeEnd:      true,
		EnableAIGrading:          true,
		AIGradingModel:           "gpt-3.5-turbo",
		ManualReviewThreshold:    0.7,
	}
}
