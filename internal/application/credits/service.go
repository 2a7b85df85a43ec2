// Package credits is the issuance and settlement engine. Minting is atomic
// with final confirmation: the NGO_APPROVED -> APPROVED status update, the
// one-to-one credit insert and the ledger entries commit in one transaction
// or not at all.
package credits

import (
	"context"
	"time"

	"bluecarbon-backend/internal/application/audit"
	"bluecarbon-backend/internal/application/registry"
	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"
	"bluecarbon-backend/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MintMailer notifies the submitting user after a successful mint. Nil = no-op.
type MintMailer interface {
	SendMintNotification(ctx context.Context, toEmail, firstName string, amount float64) error
}

type Service struct {
	DB     *gorm.DB
	Mailer MintMailer
}

// Indicative settlement price per tCO2e, used for community earnings.
const pricePerTonne = 45.0

// Mint confirms an NGO_APPROVED submission and mints its credit record.
// Preconditions checked inside the transaction: registry not paused,
// submission still NGO_APPROVED (conditional update), no credit minted for
// this submission yet (unique back-reference).
func (s *Service) Mint(ctx context.Context, submissionID uuid.UUID, actorName, actorRole string) (*domain.CreditRecord, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins confirm issuance")
	}

	var credit *domain.CreditRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paused, err := registry.Paused(tx)
		if err != nil {
			return err
		}
		if paused {
			metrics.BlockedOperations.WithLabelValues("mint").Inc()
			return apperr.ErrRegistryPaused
		}

		var sub domain.Submission
		if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("submission %s", submissionID)
			}
			return err
		}

		var existing domain.CreditRecord
		if err := tx.Where("submission_id = ?", submissionID).First(&existing).Error; err == nil {
			return apperr.Conflictf("submission %s already minted credit %s", submissionID, existing.CreditID)
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		res := tx.Model(&domain.Submission{}).
			Where("submission_id = ? AND status = ?", submissionID, constants.SubNGOApproved).
			Update("status", constants.SubApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("submission %s is not NGO_APPROVED", submissionID)
		}

		credit = &domain.CreditRecord{
			SubmissionID: submissionID,
			Amount:       sub.CreditsGenerated,
			Vintage:      time.Now().UTC().Year(),
			Status:       constants.CreditAvailable,
		}
		if err := tx.Create(credit).Error; err != nil {
			return err
		}

		confirmNote := "Verified NGO scientific audit."
		if err := audit.Append(tx, submissionID, actorName, "Final Admin Confirmation", &confirmNote); err != nil {
			return err
		}
		mintNote := "Credits minted to registry ledger."
		return audit.Append(tx, submissionID, actorName, "Credits Minted", &mintNote)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(constants.SubApproved).Inc()
	metrics.CreditsMinted.Inc()
	s.notifyMint(ctx, submissionID, credit.Amount)
	return credit, nil
}

func (s *Service) notifyMint(ctx context.Context, submissionID uuid.UUID, amount float64) {
	if s.Mailer == nil {
		return
	}
	var sub domain.Submission
	if err := s.DB.WithContext(ctx).First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		return
	}
	var author domain.User
	if err := s.DB.WithContext(ctx).First(&author, "user_id = ?", sub.UserID).Error; err != nil {
		return
	}
	if err := s.Mailer.SendMintNotification(ctx, author.Email, author.Fullname, amount); err != nil {
		log.Warn().Err(err).Str("submission_id", submissionID.String()).Msg("Mint notification email failed")
	}
}

// Purchase settles one AVAILABLE credit to a buyer. The status update is a
// compare-and-swap on AVAILABLE, so concurrent buyers racing for the same
// credit yield exactly one winner; the rest get a state conflict with no
// partial change.
func (s *Service) Purchase(ctx context.Context, creditID, buyerID uuid.UUID) (*domain.CreditRecord, error) {
	var buyer domain.User
	if err := s.DB.WithContext(ctx).First(&buyer, "user_id = ?", buyerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("buyer %s", buyerID)
		}
		return nil, err
	}
	if buyer.Role != constants.Corporate {
		return nil, apperr.Unauthorizedf("only corporate buyers purchase credits")
	}
	if buyer.Status != constants.AccountActive {
		return nil, apperr.Unauthorizedf("buyer account is %s", buyer.Status)
	}

	now := time.Now().UTC()
	var credit domain.CreditRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.CreditRecord{}).
			Where("credit_id = ? AND status = ?", creditID, constants.CreditAvailable).
			Updates(map[string]interface{}{
				"status":        constants.CreditSold,
				"owner_id":      buyerID,
				"purchase_date": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&domain.CreditRecord{}, "credit_id = ?", creditID).Error; err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("credit %s", creditID)
			}
			return apperr.Conflictf("credit %s is not available", creditID)
		}

		if err := tx.First(&credit, "credit_id = ?", creditID).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.User{}).
			Where("user_id = ?", buyerID).
			Update("credits_purchased", gorm.Expr("credits_purchased + ?", credit.Amount)).Error; err != nil {
			return err
		}

		var sub domain.Submission
		if err := tx.First(&sub, "submission_id = ?", credit.SubmissionID).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.User{}).
			Where("user_id = ?", sub.UserID).
			Update("earnings", gorm.Expr("earnings + ?", credit.Amount*pricePerTonne)).Error; err != nil {
			return err
		}

		note := "Credit settled to corporate buyer."
		return audit.Append(tx, credit.SubmissionID, buyer.Fullname, "Credit Purchased", &note)
	})
	if err != nil {
		return nil, err
	}

	metrics.CreditsSettled.Inc()
	return &credit, nil
}

// Freeze quarantines one credit regardless of ownership, remembering the
// status it displaced. Freezing an already-frozen credit is a no-op success.
func (s *Service) Freeze(ctx context.Context, creditID uuid.UUID, actorRole string) (*domain.CreditRecord, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins freeze credits")
	}

	var credit domain.CreditRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&credit, "credit_id = ?", creditID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("credit %s", creditID)
			}
			return err
		}
		if credit.Status == constants.CreditFrozen {
			return nil
		}
		prior := credit.Status
		res := tx.Model(&domain.CreditRecord{}).
			Where("credit_id = ? AND status = ?", creditID, prior).
			Updates(map[string]interface{}{"status": constants.CreditFrozen, "prior_status": prior})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("credit %s changed concurrently", creditID)
		}
		credit.Status = constants.CreditFrozen
		credit.PriorStatus = &prior
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// Unfreeze restores the status a freeze displaced. Unfreezing a credit that
// is not frozen is a no-op success.
func (s *Service) Unfreeze(ctx context.Context, creditID uuid.UUID, actorRole string) (*domain.CreditRecord, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins unfreeze credits")
	}

	var credit domain.CreditRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&credit, "credit_id = ?", creditID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("credit %s", creditID)
			}
			return err
		}
		if credit.Status != constants.CreditFrozen {
			return nil
		}
		restored := constants.CreditAvailable
		if credit.PriorStatus != nil {
			restored = *credit.PriorStatus
		}
		res := tx.Model(&domain.CreditRecord{}).
			Where("credit_id = ? AND status = ?", creditID, constants.CreditFrozen).
			Updates(map[string]interface{}{"status": restored, "prior_status": nil})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("credit %s changed concurrently", creditID)
		}
		credit.Status = restored
		credit.PriorStatus = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// Get returns one credit record.
func (s *Service) Get(ctx context.Context, creditID uuid.UUID) (*domain.CreditRecord, error) {
	var credit domain.CreditRecord
	if err := s.DB.WithContext(ctx).First(&credit, "credit_id = ?", creditID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("credit %s", creditID)
		}
		return nil, err
	}
	return &credit, nil
}

// ListAvailable returns purchasable credits, oldest vintage first.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.CreditRecord, error) {
	var out []domain.CreditRecord
	err := s.DB.WithContext(ctx).
		Where("status = ?", constants.CreditAvailable).
		Order("vintage ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

// ListByOwner returns a buyer's settled credits, newest purchase first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.CreditRecord, error) {
	var out []domain.CreditRecord
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("purchase_date DESC").
		Find(&out).Error
	return out, err
}
