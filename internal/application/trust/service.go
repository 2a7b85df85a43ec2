// Package trust derives user-level metrics and aggregate risk signals from
// the submission corpus. Everything here is a read-only projection except
// the administrative user-status and trust-score setters; nothing in this
// package blocks the submission pipeline.
package trust

import (
	"context"

	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// RiskSignals are advisory counters for display, not blocking gates.
type RiskSignals struct {
	DuplicateLocation int64 `json:"duplicate_location"`
	LowConfidence     int64 `json:"low_confidence"`
	AIOverridden      int64 `json:"ai_overridden"`
}

const lowConfidenceThreshold = 0.3

// AIAgreementRate is the percentage of human-resolved submissions where the
// oracle's pass signal (confidence > 0.7) matched the human outcome
// (APPROVED). With no resolved submissions it is 100 by convention.
func (s *Service) AIAgreementRate(ctx context.Context) (float64, error) {
	var resolved []domain.Submission
	err := s.DB.WithContext(ctx).
		Where("status IN ?", []string{constants.SubApproved, constants.SubRejected}).
		Find(&resolved).Error
	if err != nil {
		return 0, err
	}
	if len(resolved) == 0 {
		return 100, nil
	}
	matched := 0
	for _, sub := range resolved {
		aiPassed := sub.AIScore > 0.7
		humanPassed := sub.Status == constants.SubApproved
		if aiPassed == humanPassed {
			matched++
		}
	}
	return float64(matched) / float64(len(resolved)) * 100, nil
}

// Signals recomputes the risk counters from the submission corpus.
func (s *Service) Signals(ctx context.Context) (*RiskSignals, error) {
	db := s.DB.WithContext(ctx)
	var out RiskSignals

	if err := db.Model(&domain.Submission{}).
		Where("LOWER(ai_reasoning) LIKE ?", "%duplicate%").
		Count(&out.DuplicateLocation).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Submission{}).
		Where("ai_score < ?", lowConfidenceThreshold).
		Count(&out.LowConfidence).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Submission{}).
		Where("ai_overridden = ?", true).
		Count(&out.AIOverridden).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserStatus freezes or unfreezes an account. Symmetric and idempotent
// per call; a FROZEN user immediately loses the ability to author
// submissions or initiate purchases (their services check account status).
func (s *Service) SetUserStatus(ctx context.Context, userID uuid.UUID, status, actorRole string) (*domain.User, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins manage account status")
	}
	if !constants.IsValidAccountStatus(status) {
		return nil, apperr.Validationf("unknown account status %q", status)
	}

	var user domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("user %s", userID)
			}
			return err
		}
		if user.Status == status {
			return nil
		}
		if err := tx.Model(&domain.User{}).
			Where("user_id = ?", userID).
			Update("status", status).Error; err != nil {
			return err
		}
		user.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetTrustScore sets a user's trust score. Externally settable by an
// administrator; not auto-computed from submission history.
func (s *Service) SetTrustScore(ctx context.Context, userID uuid.UUID, score int, actorRole string) (*domain.User, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins set trust scores")
	}
	if score < 0 || score > 100 {
		return nil, apperr.Validationf("trust score must be between 0 and 100")
	}

	var user domain.User
	if err := s.DB.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("user %s", userID)
		}
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("trust_score", score).Error; err != nil {
		return nil, err
	}
	user.TrustScore = score
	return &user, nil
}

// Overview is the admin risk dashboard payload.
type Overview struct {
	AIAgreementRate float64      `json:"ai_agreement_rate"`
	Signals         *RiskSignals `json:"signals"`
	ResolvedCount   int64        `json:"resolved_count"`
}

// Overview combines the agreement rate and risk counters in one read.
func (s *Service) RiskOverview(ctx context.Context) (*Overview, error) {
	rate, err := s.AIAgreementRate(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := s.Signals(ctx)
	if err != nil {
		return nil, err
	}
	var resolved int64
	if err := s.DB.WithContext(ctx).Model(&domain.Submission{}).
		Where("status IN ?", []string{constants.SubApproved, constants.SubRejected}).
		Count(&resolved).Error; err != nil {
		return nil, err
	}
	return &Overview{AIAgreementRate: rate, Signals: signals, ResolvedCount: resolved}, nil
}
