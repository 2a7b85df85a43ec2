// Package registry owns the global control gate: a single paused flag that
// blocks final confirmation and minting while set. Reads and writes go
// through the singleton RegistryState row so a pause is visible to every
// subsequently-issued call; resuming replays nothing.
package registry

import (
	"context"

	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Paused reads the current gate state.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	return Paused(s.DB.WithContext(ctx))
}

// Paused reads the gate inside an existing transaction. Issuance calls use
// this form so the check and the conditional status update share one tx.
func Paused(tx *gorm.DB) (bool, error) {
	var state domain.RegistryState
	if err := tx.First(&state, domain.RegistryStateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return state.Paused, nil
}

// SetPaused flips the gate. Admin-only; route middleware enforces the
// permission and the service re-checks the role so no caller can bypass it.
// Setting the current value again is a no-op success.
func (s *Service) SetPaused(ctx context.Context, paused bool, actorID, actorRole string) (*domain.RegistryState, error) {
	if actorRole != constants.Admin {
		return nil, apperr.Unauthorizedf("only registry admins may pause or resume the registry")
	}
	var state domain.RegistryState
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.FirstOrCreate(&state, domain.RegistryState{ID: domain.RegistryStateID}).Error; err != nil {
			return err
		}
		state.Paused = paused
		state.UpdatedBy = actorID
		return tx.Save(&state).Error
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}
