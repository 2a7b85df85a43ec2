package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry is one row of a submission's append-only audit trail. Entries
// are ordered per submission by Seq; nothing updates or deletes them.
type AuditEntry struct {
	EntryID      uuid.UUID `gorm:"column:entry_id;type:uuid;primaryKey" json:"entry_id"`
	SubmissionID uuid.UUID `gorm:"column:submission_id;type:uuid;not null;uniqueIndex:idx_audit_sub_seq" json:"submission_id"`
	Seq          int       `gorm:"column:seq;not null;uniqueIndex:idx_audit_sub_seq" json:"seq"`
	Timestamp    time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	Actor        string    `gorm:"column:actor;not null" json:"actor"`
	Action       string    `gorm:"column:action;not null" json:"action"`
	Note         *string   `gorm:"column:note" json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (AuditEntry) TableName() string {
	return "AuditEntries"
}

func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.EntryID == uuid.Nil {
		a.EntryID = uuid.New()
	}
	return nil
}
