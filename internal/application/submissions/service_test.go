package submissions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bluecarbon-backend/internal/application/verification"
	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeVerifier struct {
	res *verification.Result
	err error
}

func (f *fakeVerifier) Verify(ctx context.Context, req verification.VerifyRequest) (*verification.Result, error) {
	return f.res, f.err
}

func setupSubmissionsTest(t *testing.T, v verification.ImageVerifier) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Submission{}, &domain.AuditEntry{},
		&domain.CreditRecord{}, &domain.RegistryState{},
	))
	svc := &Service{DB: db, Scorer: &verification.Service{Verifier: v}}
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *domain.User {
	suffix := uuid.New().String()[:8]
	u := &domain.User{
		Fullname:     "Test " + role,
		UserName:     "test_" + suffix,
		Email:        suffix + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Status:       constants.AccountActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func scoredVerifier(confidence float64) *fakeVerifier {
	return &fakeVerifier{res: &verification.Result{
		Confidence:           confidence,
		Reasoning:            "Dense mangrove canopy detected.",
		DetectedFeatures:     []string{"mangrove", "tidal channel"},
		EnvironmentalContext: "COASTAL",
	}}
}

func trail(t *testing.T, svc *Service, id interface{ String() string }) []domain.AuditEntry {
	var entries []domain.AuditEntry
	require.NoError(t, svc.DB.Where("submission_id = ?", id.String()).Order("seq ASC").Find(&entries).Error)
	return entries
}

func TestCreate_HighConfidenceAutoVerifies(t *testing.T) {
	svc, db := setupSubmissionsTest(t, scoredVerifier(0.92))
	author := seedUser(t, db, constants.Community)

	sub, err := svc.Create(context.Background(), CreateInput{
		AuthorID:      author.UserID,
		EcosystemType: constants.Mangrove,
		ImageBytes:    []byte("jpeg-bytes"),
		Lat:           1.35,
		Lng:           103.8,
		Region:        "Sundarbans East",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.SubAIVerified, sub.Status)
	assert.Equal(t, 0.92, sub.AIScore)
	assert.Equal(t, 1.5, sub.CreditsGenerated)
	assert.NotEmpty(t, sub.LedgerHash)
	assert.Contains(t, sub.ImageURL, sub.LedgerHash)

	entries := trail(t, svc, sub.SubmissionID)
	require.Len(t, entries, 1)
	assert.Equal(t, "Submission Created", entries[0].Action)
	assert.Equal(t, author.Fullname, entries[0].Actor)
	assert.Equal(t, 1, entries[0].Seq)
}

func TestCreate_LowConfidenceStaysPending(t *testing.T) {
	svc, db := setupSubmissionsTest(t, scoredVerifier(0.55))
	author := seedUser(t, db, constants.Community)

	sub, err := svc.Create(context.Background(), CreateInput{
		AuthorID:      author.UserID,
		EcosystemType: constants.Seagrass,
		ImageBytes:    []byte("jpeg-bytes"),
		Lat:           -8.4,
		Lng:           115.1,
	})
	require.NoError(t, err)

	assert.Equal(t, constants.SubPending, sub.Status)
	assert.Equal(t, 0.8, sub.CreditsGenerated)
	assert.Equal(t, "Unclassified Coastal Zone", sub.Region)
}

func TestCreate_VerifierDownFallsBackToPending(t *testing.T) {
	svc, db := setupSubmissionsTest(t, &fakeVerifier{err: errors.New("connection refused")})
	author := seedUser(t, db, constants.Community)

	sub, err := svc.Create(context.Background(), CreateInput{
		AuthorID:      author.UserID,
		EcosystemType: constants.Mangrove,
		ImageBytes:    []byte("jpeg-bytes"),
		Lat:           1.35,
		Lng:           103.8,
	})
	require.NoError(t, err)

	assert.Equal(t, constants.SubPending, sub.Status)
	assert.Equal(t, float64(0), sub.AIScore)
	assert.Contains(t, sub.AIReasoning, "Automated verification unavailable")
}

func TestCreate_Validation(t *testing.T) {
	svc, db := setupSubmissionsTest(t, scoredVerifier(0.9))
	author := seedUser(t, db, constants.Community)

	_, err := svc.Create(context.Background(), CreateInput{
		AuthorID: author.UserID, EcosystemType: constants.Mangrove,
		Lat: 1, Lng: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{
		AuthorID: author.UserID, EcosystemType: "KELP",
		ImageBytes: []byte("x"), Lat: 1, Lng: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{
		AuthorID: author.UserID, EcosystemType: constants.Mangrove,
		ImageBytes: []byte("x"), Lat: 0, Lng: 0,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreate_AuthorChecks(t *testing.T) {
	svc, db := setupSubmissionsTest(t, scoredVerifier(0.9))

	ngo := seedUser(t, db, constants.NGO)
	_, err := svc.Create(context.Background(), CreateInput{
		AuthorID: ngo.UserID, EcosystemType: constants.Mangrove,
		ImageBytes: []byte("x"), Lat: 1, Lng: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	frozen := seedUser(t, db, constants.Community)
	require.NoError(t, db.Model(frozen).Update("status", constants.AccountFrozen).Error)
	_, err = svc.Create(context.Background(), CreateInput{
		AuthorID: frozen.UserID, EcosystemType: constants.Mangrove,
		ImageBytes: []byte("x"), Lat: 1, Lng: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func createSubmission(t *testing.T, svc *Service, db *gorm.DB, confidence float64) (*domain.Submission, *domain.User) {
	author := seedUser(t, db, constants.Community)
	svc.Scorer = &verification.Service{Verifier: scoredVerifier(confidence)}
	sub, err := svc.Create(context.Background(), CreateInput{
		AuthorID: author.UserID, EcosystemType: constants.Mangrove,
		ImageBytes: []byte("jpeg-bytes"), Lat: 1.35, Lng: 103.8,
	})
	require.NoError(t, err)
	return sub, author
}

func TestTransition_ReviewFlow(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.4)
	ngo := seedUser(t, db, constants.NGO)

	got, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubInReview,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SubInReview, got.Status)

	entries := trail(t, svc, sub.SubmissionID)
	require.Len(t, entries, 2)
	assert.Equal(t, "Moved To Review", entries[1].Action)
	assert.Equal(t, 2, entries[1].Seq)

	note := "Canopy density confirmed against satellite imagery."
	got, err = svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubNGOApproved, Note: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SubNGOApproved, got.Status)
	require.NotNil(t, got.VerifierComments)
	assert.Equal(t, note, *got.VerifierComments)

	entries = trail(t, svc, sub.SubmissionID)
	require.Len(t, entries, 3)
	assert.Equal(t, "NGO Scientific Approval", entries[2].Action)
	require.NotNil(t, entries[2].Note)
	assert.Equal(t, note, *entries[2].Note)
}

func TestTransition_DuplicateIsIdempotent(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.4)
	ngo := seedUser(t, db, constants.NGO)

	in := TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubInReview,
	}
	_, err := svc.Transition(context.Background(), in)
	require.NoError(t, err)

	// Redelivered request: success, no extra ledger entry.
	got, err := svc.Transition(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, constants.SubInReview, got.Status)
	assert.Len(t, trail(t, svc, sub.SubmissionID), 2)
}

func TestTransition_IdempotentPathStillAuthorizes(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, author := createSubmission(t, svc, db, 0.4)
	ngo := seedUser(t, db, constants.NGO)

	_, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubInReview,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: author.UserID,
		ActorName: author.Fullname, ActorRole: constants.Community,
		TargetStatus: constants.SubInReview,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTransition_IllegalEdges(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.4)
	ngo := seedUser(t, db, constants.NGO)
	admin := seedUser(t, db, constants.Admin)

	// PENDING has no direct edge to NGO_APPROVED.
	_, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubNGOApproved,
	})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	// Final confirmation is served by the issuance engine, never here.
	_, err = svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: admin.UserID,
		ActorName: admin.Fullname, ActorRole: constants.Admin,
		TargetStatus: constants.SubApproved,
	})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	// Terminal states have no outgoing edges.
	_, err = svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubRejected,
	})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubInReview,
	})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestTransition_ConcurrentReviewersOneWinner(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection: racing reviewers must lose the compare-and-swap, not
	// hit driver-level busy errors on the in-memory database.
	sqlDB.SetMaxOpenConns(1)

	sub, _ := createSubmission(t, svc, db, 0.4)
	first := seedUser(t, db, constants.NGO)
	second := seedUser(t, db, constants.NGO)

	// IN_REVIEW and FIELD_CHECK have no edge between them, so whichever
	// reviewer applies second conflicts instead of stacking a transition.
	inputs := []TransitionInput{
		{
			SubmissionID: sub.SubmissionID, ActorID: first.UserID,
			ActorName: first.Fullname, ActorRole: constants.NGO,
			TargetStatus: constants.SubInReview,
		},
		{
			SubmissionID: sub.SubmissionID, ActorID: second.UserID,
			ActorName: second.Fullname, ActorRole: constants.NGO,
			TargetStatus: constants.SubFieldCheck,
		},
	}

	errs := make(chan error, len(inputs))
	var wg sync.WaitGroup
	for _, in := range inputs {
		wg.Add(1)
		go func(in TransitionInput) {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), in)
			errs <- err
		}(in)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrStateConflict)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	var got domain.Submission
	require.NoError(t, db.First(&got, "submission_id = ?", sub.SubmissionID).Error)
	assert.Contains(t, []string{constants.SubInReview, constants.SubFieldCheck}, got.Status)
	assert.Len(t, trail(t, svc, sub.SubmissionID), 2)
}

func TestTransition_RoleUnauthorized(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, author := createSubmission(t, svc, db, 0.4)

	_, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: author.UserID,
		ActorName: author.Fullname, ActorRole: constants.Community,
		TargetStatus: constants.SubInReview,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Len(t, trail(t, svc, sub.SubmissionID), 1)
}

func TestTransition_RecordsOracleOverride(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.92) // AI_VERIFIED
	ngo := seedUser(t, db, constants.NGO)

	note := "Imagery reused from a prior submission."
	got, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubRejected, Note: &note,
	})
	require.NoError(t, err)
	assert.True(t, got.AIOverridden)
}

func TestTransition_AgreementDoesNotSetOverride(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.92)
	ngo := seedUser(t, db, constants.NGO)

	got, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubNGOApproved,
	})
	require.NoError(t, err)
	assert.False(t, got.AIOverridden)
}

func TestMarkOracleFailed(t *testing.T) {
	svc, db := setupSubmissionsTest(t, &fakeVerifier{err: errors.New("timeout")})
	author := seedUser(t, db, constants.Community)
	ngo := seedUser(t, db, constants.NGO)

	sub, err := svc.Create(context.Background(), CreateInput{
		AuthorID: author.UserID, EcosystemType: constants.Mangrove,
		ImageBytes: []byte("x"), Lat: 1, Lng: 1,
	})
	require.NoError(t, err)
	require.Equal(t, constants.SubPending, sub.Status)

	got, err := svc.MarkOracleFailed(context.Background(), sub.SubmissionID, ngo.Fullname, constants.NGO)
	require.NoError(t, err)
	assert.Equal(t, constants.SubAIFailed, got.Status)

	entries := trail(t, svc, sub.SubmissionID)
	require.Len(t, entries, 2)
	assert.Equal(t, "Automated Verification Failed", entries[1].Action)

	// Repeat is a no-op success.
	got, err = svc.MarkOracleFailed(context.Background(), sub.SubmissionID, ngo.Fullname, constants.NGO)
	require.NoError(t, err)
	assert.Equal(t, constants.SubAIFailed, got.Status)
	assert.Len(t, trail(t, svc, sub.SubmissionID), 2)

	// AI_FAILED resolves only to REJECTED.
	rejected, err := svc.Transition(context.Background(), TransitionInput{
		SubmissionID: sub.SubmissionID, ActorID: ngo.UserID,
		ActorName: ngo.Fullname, ActorRole: constants.NGO,
		TargetStatus: constants.SubRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SubRejected, rejected.Status)
}

func TestMarkOracleFailed_RequiresFallbackScore(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	sub, _ := createSubmission(t, svc, db, 0.4) // scored, PENDING
	ngo := seedUser(t, db, constants.NGO)

	_, err := svc.MarkOracleFailed(context.Background(), sub.SubmissionID, ngo.Fullname, constants.NGO)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestListByStatus_ValidatesAndOrders(t *testing.T) {
	svc, db := setupSubmissionsTest(t, nil)
	createSubmission(t, svc, db, 0.4)
	createSubmission(t, svc, db, 0.3)

	_, err := svc.ListByStatus(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	subs, err := svc.ListByStatus(context.Background(), constants.SubPending)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}
