package domain

import "time"

// RegistryState is the single global control row (ID is always 1). While
// Paused, final confirmation and minting fail with a blocked-operation error.
type RegistryState struct {
	ID        int       `gorm:"column:id;primaryKey" json:"id"`
	Paused    bool      `gorm:"column:paused;not null;default:false" json:"paused"`
	UpdatedBy string    `gorm:"column:updated_by" json:"updated_by"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RegistryState) TableName() string {
	return "RegistryState"
}

// RegistryStateID is the fixed primary key of the singleton row.
const RegistryStateID = 1
