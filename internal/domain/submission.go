package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is one field-evidence record. CreditsGenerated is assigned at
// creation from the ecosystem credit rate and never mutated afterwards; only
// Status (and the audit trail rows referencing this id) change during review.
type Submission struct {
	SubmissionID         uuid.UUID      `gorm:"column:submission_id;type:uuid;primaryKey" json:"submission_id"`
	UserID               uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	UserName             string         `gorm:"column:user_name;not null" json:"user_name"`
	Lat                  float64        `gorm:"column:lat;type:decimal(9,6);not null" json:"lat"`
	Lng                  float64        `gorm:"column:lng;type:decimal(9,6);not null" json:"lng"`
	Region               string         `gorm:"column:region;not null" json:"region"`
	ImageURL             string         `gorm:"column:image_url;not null" json:"image_url"`
	EcosystemType        string         `gorm:"column:ecosystem_type;type:varchar(16);not null" json:"ecosystem_type"`
	Status               string         `gorm:"column:status;type:varchar(20);not null" json:"status"`
	AIScore              float64        `gorm:"column:ai_score;type:decimal(5,4);not null" json:"ai_score"`
	AIReasoning          string         `gorm:"column:ai_reasoning;type:text" json:"ai_reasoning"`
	DetectedFeatures     datatypes.JSON `gorm:"column:detected_features;type:jsonb" json:"detected_features"`
	EnvironmentalContext string         `gorm:"column:environmental_context" json:"environmental_context"`
	AIOverridden         bool           `gorm:"column:ai_overridden;not null;default:false" json:"ai_overridden"`
	VerifierComments     *string        `gorm:"column:verifier_comments" json:"verifier_comments"`
	CreditsGenerated     float64        `gorm:"column:credits_generated;type:decimal(18,2);not null" json:"credits_generated"`
	LedgerHash           string         `gorm:"column:ledger_hash;not null" json:"ledger_hash"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Submission) TableName() string {
	return "Submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.SubmissionID == uuid.Nil {
		s.SubmissionID = uuid.New()
	}
	return nil
}
