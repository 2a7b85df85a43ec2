package submissions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"bluecarbon-backend/internal/application/audit"
	"bluecarbon-backend/internal/application/verification"
	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"
	"bluecarbon-backend/internal/pkg/metrics"
	"bluecarbon-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns the submission lifecycle: ingestion and review transitions.
type Service struct {
	DB     *gorm.DB
	Scorer *verification.Service
}

// The oracle-confidence threshold that auto-verifies a fresh submission.
const aiVerifiedThreshold = 0.7

// CreateInput is the ingestion boundary payload.
type CreateInput struct {
	AuthorID      uuid.UUID
	EcosystemType string
	ImageBytes    []byte
	Lat           float64
	Lng           float64
	Region        string
}

// Create ingests one field-evidence record: validates input, scores the image
// through the oracle adapter, then persists the submission in its initial
// state with its first audit entry. Scoring happens before the row exists, so
// a slow oracle call never blocks a lock. An oracle failure degrades to the
// fallback score and status PENDING; it never fails ingestion.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Submission, error) {
	if len(in.ImageBytes) == 0 {
		return nil, apperr.Validationf("image is required")
	}
	if !constants.IsValidEcosystem(in.EcosystemType) {
		return nil, apperr.Validationf("unknown ecosystem type %q", in.EcosystemType)
	}
	if !validation.IsValidCoordinates(in.Lat, in.Lng) {
		return nil, apperr.Validationf("coordinates out of range")
	}

	var author domain.User
	if err := s.DB.WithContext(ctx).First(&author, "user_id = ?", in.AuthorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("author %s", in.AuthorID)
		}
		return nil, err
	}
	if author.Role != constants.Community {
		return nil, apperr.Unauthorizedf("only community members author submissions")
	}
	if author.Status == constants.AccountFrozen {
		return nil, apperr.Unauthorizedf("account is frozen")
	}

	scored := s.Scorer.Score(ctx, verification.VerifyRequest{
		ImageBytes:    in.ImageBytes,
		EcosystemType: in.EcosystemType,
		Lat:           in.Lat,
		Lng:           in.Lng,
	})

	status := constants.SubPending
	if scored.Confidence > aiVerifiedThreshold {
		status = constants.SubAIVerified
	}

	region := strings.TrimSpace(in.Region)
	if region == "" {
		region = "Unclassified Coastal Zone"
	}

	hash := sha256.Sum256(in.ImageBytes)
	ledgerHash := hex.EncodeToString(hash[:])
	features, _ := json.Marshal(scored.DetectedFeatures)

	sub := &domain.Submission{
		UserID:               author.UserID,
		UserName:             author.Fullname,
		Lat:                  in.Lat,
		Lng:                  in.Lng,
		Region:               region,
		ImageURL:             "evidence/" + ledgerHash + ".jpg",
		EcosystemType:        in.EcosystemType,
		Status:               status,
		AIScore:              scored.Confidence,
		AIReasoning:          scored.Reasoning,
		DetectedFeatures:     datatypes.JSON(features),
		EnvironmentalContext: scored.EnvironmentalContext,
		CreditsGenerated:     constants.CreditRates[in.EcosystemType],
		LedgerHash:           ledgerHash,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		note := "Field data uploaded via mobile app."
		return audit.Append(tx, sub.SubmissionID, author.Fullname, "Submission Created", &note)
	})
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsCreated.WithLabelValues(status).Inc()
	return sub, nil
}

// TransitionInput is the review boundary payload.
type TransitionInput struct {
	SubmissionID uuid.UUID
	ActorID      uuid.UUID
	ActorName    string
	ActorRole    string
	TargetStatus string
	Note         *string
}

// Transition applies one review edge. Semantics:
//   - already in target: success without a new audit entry (at-least-once
//     delivery tolerance), provided the actor could have performed the edge;
//   - edge not in the lifecycle graph: state conflict;
//   - role not authorized for the edge: authorization error, no audit entry;
//   - lost race on the conditional status update: state conflict.
//
// Final confirmation (target APPROVED) is not served here: it mints credits
// atomically and lives in the issuance engine.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (*domain.Submission, error) {
	if in.TargetStatus == constants.SubApproved {
		return nil, apperr.Conflictf("final confirmation mints credits; use the issuance operation")
	}

	var sub domain.Submission
	if err := s.DB.WithContext(ctx).First(&sub, "submission_id = ?", in.SubmissionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("submission %s", in.SubmissionID)
		}
		return nil, err
	}

	if sub.Status == in.TargetStatus {
		if !RoleMayEnter(in.ActorRole, in.TargetStatus) {
			return nil, apperr.Unauthorizedf("role %s may not set status %s", in.ActorRole, in.TargetStatus)
		}
		return &sub, nil
	}
	if !AllowedEdge(sub.Status, in.TargetStatus) {
		return nil, apperr.Conflictf("no transition from %s to %s", sub.Status, in.TargetStatus)
	}
	if !RoleMayTransition(in.ActorRole, sub.Status, in.TargetStatus) {
		return nil, apperr.Unauthorizedf("role %s may not resolve %s to %s", in.ActorRole, sub.Status, in.TargetStatus)
	}

	updates := map[string]interface{}{"status": in.TargetStatus}
	if in.Note != nil && (in.TargetStatus == constants.SubNGOApproved || in.TargetStatus == constants.SubRejected) {
		updates["verifier_comments"] = *in.Note
	}
	// A human resolution that contradicts the oracle's signal is recorded for
	// the risk counters.
	if in.TargetStatus == constants.SubNGOApproved || in.TargetStatus == constants.SubRejected {
		aiPassed := sub.AIScore > aiVerifiedThreshold
		humanPassed := in.TargetStatus == constants.SubNGOApproved
		if aiPassed != humanPassed {
			updates["ai_overridden"] = true
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Submission{}).
			Where("submission_id = ? AND status = ?", sub.SubmissionID, sub.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("submission %s changed concurrently", sub.SubmissionID)
		}
		return audit.Append(tx, sub.SubmissionID, in.ActorName, AuditAction(in.TargetStatus), in.Note)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(in.TargetStatus).Inc()
	return s.Get(ctx, sub.SubmissionID)
}

// MarkOracleFailed is the explicit oracle-failure path: it moves a PENDING
// submission whose score came from the fallback into AI_FAILED. Low
// confidence alone never triggers it.
func (s *Service) MarkOracleFailed(ctx context.Context, submissionID uuid.UUID, actorName, actorRole string) (*domain.Submission, error) {
	if actorRole != constants.NGO && actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("role %s may not mark verification failures", actorRole)
	}

	var sub domain.Submission
	if err := s.DB.WithContext(ctx).First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("submission %s", submissionID)
		}
		return nil, err
	}
	if sub.Status == constants.SubAIFailed {
		return &sub, nil
	}
	if sub.Status != constants.SubPending {
		return nil, apperr.Conflictf("submission %s is %s, not PENDING", submissionID, sub.Status)
	}
	if sub.AIScore != 0 {
		return nil, apperr.Conflictf("submission %s was scored; not an oracle failure", submissionID)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Submission{}).
			Where("submission_id = ? AND status = ?", submissionID, constants.SubPending).
			Update("status", constants.SubAIFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("submission %s changed concurrently", submissionID)
		}
		return audit.Append(tx, submissionID, actorName, AuditAction(constants.SubAIFailed), nil)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(constants.SubAIFailed).Inc()
	return s.Get(ctx, submissionID)
}

// Get returns one submission.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	var sub domain.Submission
	if err := s.DB.WithContext(ctx).First(&sub, "submission_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("submission %s", id)
		}
		return nil, err
	}
	return &sub, nil
}

// Trail returns a submission's audit trail in append order.
func (s *Service) Trail(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return audit.Trail(ctx, s.DB, id)
}

// ListByUser returns a user's submissions, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Submission, error) {
	var subs []domain.Submission
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// ListByStatus returns submissions in the given statuses, oldest first
// (review and confirmation queues).
func (s *Service) ListByStatus(ctx context.Context, statuses ...string) ([]domain.Submission, error) {
	for _, st := range statuses {
		switch st {
		case constants.SubPending, constants.SubInReview, constants.SubFieldCheck,
			constants.SubAIVerified, constants.SubAIFailed, constants.SubNGOApproved,
			constants.SubApproved, constants.SubRejected:
		default:
			return nil, apperr.Validationf("unknown status %q", st)
		}
	}
	var subs []domain.Submission
	err := s.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}
