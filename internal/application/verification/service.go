package verification

import (
	"context"
	"time"

	"bluecarbon-backend/internal/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// Scored is what ingestion receives. Always well-formed: an oracle failure
// or timeout degrades to the zero-confidence fallback instead of an error,
// with Failed set so callers can record the cause.
type Scored struct {
	Result
	Failed       bool
	FailureCause string
}

// Service wraps the oracle behind a stable contract. It holds no domain
// state; scoring runs before any submission row exists, so a slow oracle
// never holds a lock.
type Service struct {
	Verifier ImageVerifier
	Timeout  time.Duration
}

const defaultTimeout = 8 * time.Second

// Score verifies one image. The returned confidence is clamped to [0,1].
func (s *Service) Score(ctx context.Context, req VerifyRequest) Scored {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.Verifier.Verify(ctx, req)
	if err != nil {
		metrics.OracleFailures.Inc()
		log.Warn().Err(err).Str("ecosystem_type", req.EcosystemType).Msg("Verifier unavailable, using fallback score")
		return Scored{
			Result: Result{
				Confidence:           0,
				Reasoning:            "Automated verification unavailable: " + err.Error(),
				DetectedFeatures:     []string{},
				EnvironmentalContext: "UNKNOWN",
			},
			Failed:       true,
			FailureCause: err.Error(),
		}
	}

	out := *res
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	if out.DetectedFeatures == nil {
		out.DetectedFeatures = []string{}
	}
	if out.EnvironmentalContext == "" {
		out.EnvironmentalContext = "COASTAL"
	}
	return Scored{Result: out}
}
