package trust

import (
	"context"
	"testing"

	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTrustTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Submission{}))
	return &Service{DB: db}, db
}

func seedScoredSubmission(t *testing.T, db *gorm.DB, status string, aiScore float64, reasoning string, overridden bool) {
	sub := &domain.Submission{
		UserID:           uuid.New(),
		UserName:         "Seed",
		Lat:              1,
		Lng:              1,
		Region:           "Test Zone",
		ImageURL:         "evidence/x.jpg",
		EcosystemType:    constants.Mangrove,
		Status:           status,
		AIScore:          aiScore,
		AIReasoning:      reasoning,
		AIOverridden:     overridden,
		CreditsGenerated: 1.5,
		LedgerHash:       uuid.New().String(),
	}
	require.NoError(t, db.Create(sub).Error)
}

func TestAIAgreementRate_EmptyIsHundred(t *testing.T) {
	svc, _ := setupTrustTest(t)
	rate, err := svc.AIAgreementRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(100), rate)
}

func TestAIAgreementRate_CountsMatches(t *testing.T) {
	svc, db := setupTrustTest(t)
	// Agreements: high score approved, low score rejected.
	seedScoredSubmission(t, db, constants.SubApproved, 0.9, "ok", false)
	seedScoredSubmission(t, db, constants.SubRejected, 0.2, "ok", false)
	// Disagreements: high score rejected, low score approved.
	seedScoredSubmission(t, db, constants.SubRejected, 0.9, "ok", true)
	seedScoredSubmission(t, db, constants.SubApproved, 0.4, "ok", true)
	// Unresolved states are excluded.
	seedScoredSubmission(t, db, constants.SubPending, 0.9, "ok", false)
	seedScoredSubmission(t, db, constants.SubInReview, 0.1, "ok", false)

	rate, err := svc.AIAgreementRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(50), rate)
}

func TestSignals_Counters(t *testing.T) {
	svc, db := setupTrustTest(t)
	seedScoredSubmission(t, db, constants.SubPending, 0.9, "Possible DUPLICATE image detected", false)
	seedScoredSubmission(t, db, constants.SubPending, 0.1, "blurry frame", false)
	seedScoredSubmission(t, db, constants.SubRejected, 0.9, "clear canopy", true)
	seedScoredSubmission(t, db, constants.SubApproved, 0.8, "clear canopy", false)

	signals, err := svc.Signals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), signals.DuplicateLocation)
	assert.Equal(t, int64(1), signals.LowConfidence)
	assert.Equal(t, int64(1), signals.AIOverridden)
}

func TestRiskOverview(t *testing.T) {
	svc, db := setupTrustTest(t)
	seedScoredSubmission(t, db, constants.SubApproved, 0.9, "ok", false)
	seedScoredSubmission(t, db, constants.SubRejected, 0.2, "duplicate suspected", false)

	overview, err := svc.RiskOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(100), overview.AIAgreementRate)
	assert.Equal(t, int64(2), overview.ResolvedCount)
	assert.Equal(t, int64(1), overview.Signals.DuplicateLocation)
}

func TestSetUserStatus(t *testing.T) {
	svc, db := setupTrustTest(t)
	u := &domain.User{
		Fullname: "Ama Serwaa", UserName: "ama", Email: "ama@example.com",
		PasswordHash: "x", Role: constants.Community, Status: constants.AccountActive,
	}
	require.NoError(t, db.Create(u).Error)

	got, err := svc.SetUserStatus(context.Background(), u.UserID, constants.AccountFrozen, constants.Admin)
	require.NoError(t, err)
	assert.Equal(t, constants.AccountFrozen, got.Status)

	// Setting the same status again is a no-op success.
	got, err = svc.SetUserStatus(context.Background(), u.UserID, constants.AccountFrozen, constants.Admin)
	require.NoError(t, err)
	assert.Equal(t, constants.AccountFrozen, got.Status)

	got, err = svc.SetUserStatus(context.Background(), u.UserID, constants.AccountActive, constants.Admin)
	require.NoError(t, err)
	assert.Equal(t, constants.AccountActive, got.Status)

	_, err = svc.SetUserStatus(context.Background(), u.UserID, constants.AccountFrozen, constants.NGO)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.SetUserStatus(context.Background(), u.UserID, "BANNED", constants.Admin)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.SetUserStatus(context.Background(), uuid.New(), constants.AccountFrozen, constants.Admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetTrustScore(t *testing.T) {
	svc, db := setupTrustTest(t)
	u := &domain.User{
		Fullname: "Kofi Mensah", UserName: "kofi", Email: "kofi@example.com",
		PasswordHash: "x", Role: constants.Community, Status: constants.AccountActive,
	}
	require.NoError(t, db.Create(u).Error)

	got, err := svc.SetTrustScore(context.Background(), u.UserID, 85, constants.Admin)
	require.NoError(t, err)
	assert.Equal(t, 85, got.TrustScore)

	_, err = svc.SetTrustScore(context.Background(), u.UserID, 120, constants.Admin)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.SetTrustScore(context.Background(), u.UserID, -1, constants.Admin)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.SetTrustScore(context.Background(), u.UserID, 50, constants.Corporate)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
