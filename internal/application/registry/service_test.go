package registry

import (
	"context"
	"testing"

	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRegistryTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.RegistryState{}))
	return &Service{DB: db}, db
}

func TestPaused_DefaultsToFalse(t *testing.T) {
	svc, _ := setupRegistryTest(t)
	paused, err := svc.Paused(context.Background())
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestSetPaused_FlipsAndPersists(t *testing.T) {
	svc, db := setupRegistryTest(t)

	state, err := svc.SetPaused(context.Background(), true, "admin-1", constants.Admin)
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Equal(t, "admin-1", state.UpdatedBy)

	paused, err := Paused(db)
	require.NoError(t, err)
	assert.True(t, paused)

	// Pausing an already-paused registry is a no-op success.
	state, err = svc.SetPaused(context.Background(), true, "admin-2", constants.Admin)
	require.NoError(t, err)
	assert.True(t, state.Paused)

	state, err = svc.SetPaused(context.Background(), false, "admin-1", constants.Admin)
	require.NoError(t, err)
	assert.False(t, state.Paused)

	paused, err = svc.Paused(context.Background())
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestSetPaused_AdminOnly(t *testing.T) {
	svc, _ := setupRegistryTest(t)
	for _, role := range []string{constants.Community, constants.NGO, constants.Corporate} {
		_, err := svc.SetPaused(context.Background(), true, "user-1", role)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	}
}
