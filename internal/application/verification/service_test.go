package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	res *Result
	err error
}

func (s *stubVerifier) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	return s.res, s.err
}

func TestScore_FallbackOnError(t *testing.T) {
	svc := &Service{Verifier: &stubVerifier{err: errors.New("dial tcp: connection refused")}}

	scored := svc.Score(context.Background(), VerifyRequest{EcosystemType: "MANGROVE"})

	assert.True(t, scored.Failed)
	assert.Equal(t, float64(0), scored.Confidence)
	assert.Contains(t, scored.Reasoning, "Automated verification unavailable")
	assert.Equal(t, "UNKNOWN", scored.EnvironmentalContext)
	assert.NotNil(t, scored.DetectedFeatures)
	assert.Contains(t, scored.FailureCause, "connection refused")
}

func TestScore_ClampsConfidence(t *testing.T) {
	svc := &Service{Verifier: &stubVerifier{res: &Result{Confidence: 1.7}}}
	scored := svc.Score(context.Background(), VerifyRequest{})
	assert.Equal(t, float64(1), scored.Confidence)
	assert.False(t, scored.Failed)

	svc = &Service{Verifier: &stubVerifier{res: &Result{Confidence: -0.2}}}
	scored = svc.Score(context.Background(), VerifyRequest{})
	assert.Equal(t, float64(0), scored.Confidence)
}

func TestScore_Defaults(t *testing.T) {
	svc := &Service{Verifier: &stubVerifier{res: &Result{Confidence: 0.6}}}
	scored := svc.Score(context.Background(), VerifyRequest{})
	assert.Equal(t, "COASTAL", scored.EnvironmentalContext)
	assert.NotNil(t, scored.DetectedFeatures)
}
