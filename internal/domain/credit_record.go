package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreditRecord is one tradeable tCO2e unit minted from exactly one approved
// submission (submission_id is unique). OwnerID and PurchaseDate are set
// together on settlement or not at all. PriorStatus holds the status an
// administrative freeze displaced, so unfreeze can restore it.
type CreditRecord struct {
	CreditID     uuid.UUID      `gorm:"column:credit_id;type:uuid;primaryKey" json:"credit_id"`
	SubmissionID uuid.UUID      `gorm:"column:submission_id;type:uuid;not null;uniqueIndex" json:"submission_id"`
	Amount       float64        `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Vintage      int            `gorm:"column:vintage;not null" json:"vintage"`
	Status       string         `gorm:"column:status;type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	PriorStatus  *string        `gorm:"column:prior_status;type:varchar(20)" json:"prior_status,omitempty"`
	OwnerID      *uuid.UUID     `gorm:"column:owner_id;type:uuid" json:"owner_id"`
	PurchaseDate *time.Time     `gorm:"column:purchase_date" json:"purchase_date"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CreditRecord) TableName() string {
	return "CreditRecords"
}

func (c *CreditRecord) BeforeCreate(tx *gorm.DB) error {
	if c.CreditID == uuid.Nil {
		c.CreditID = uuid.New()
	}
	return nil
}
