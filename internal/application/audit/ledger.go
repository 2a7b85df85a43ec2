// Package audit is the append-only per-submission ledger every lifecycle
// operation writes to. Entries are never updated, deleted or reordered; the
// (submission_id, seq) unique index backs the per-submission ordering the
// optimistic status updates already guarantee.
package audit

import (
	"context"
	"time"

	"bluecarbon-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Append writes one entry inside the caller's transaction. Callers hold the
// submission's write serialization (conditional status update), so seq
// assignment cannot race for the same submission.
func Append(tx *gorm.DB, submissionID uuid.UUID, actor, action string, note *string) error {
	var maxSeq int
	if err := tx.Model(&domain.AuditEntry{}).
		Where("submission_id = ?", submissionID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return err
	}
	return tx.Create(&domain.AuditEntry{
		SubmissionID: submissionID,
		Seq:          maxSeq + 1,
		Timestamp:    time.Now().UTC(),
		Actor:        actor,
		Action:       action,
		Note:         note,
	}).Error
}

// Trail returns a submission's entries in append order.
func Trail(ctx context.Context, db *gorm.DB, submissionID uuid.UUID) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}
