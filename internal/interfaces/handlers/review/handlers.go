package review

import (
	"strings"

	creditssvc "bluecarbon-backend/internal/application/credits"
	subssvc "bluecarbon-backend/internal/application/submissions"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for the verification review endpoints.
type Handlers struct {
	Submissions *subssvc.Service
	Credits     *creditssvc.Service
}

// TransitionRequest is the status-change body for reviewers and admins.
type TransitionRequest struct {
	TargetStatus string  `json:"target_status"`
	Note         *string `json:"note"`
}

// Transition PATCH /api/v1/review/submissions/:id/status — move a submission
// through the verification workflow. A target of APPROVED is the final admin
// confirmation and mints credits atomically with the status change.
func (h *Handlers) Transition(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid submission ID", fiber.StatusBadRequest, nil)
	}

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	target := strings.ToUpper(strings.TrimSpace(req.TargetStatus))
	if target == "" {
		return response.Error(c, "target_status is required", fiber.StatusBadRequest, nil)
	}

	if target == constants.SubApproved {
		credit, err := h.Credits.Mint(c.Context(), subID, actor.Fullname, actor.Role)
		if err != nil {
			return response.FromError(c, err, apperr.HTTPStatus(err))
		}
		sub, err := h.Submissions.Get(c.Context(), subID)
		if err != nil {
			return response.FromError(c, err, apperr.HTTPStatus(err))
		}
		return response.Success(c, "Submission approved and credits minted", fiber.Map{
			"submission": sub,
			"credit":     credit,
		}, nil)
	}

	sub, err := h.Submissions.Transition(c.Context(), subssvc.TransitionInput{
		SubmissionID: subID,
		ActorID:      actorID,
		ActorName:    actor.Fullname,
		ActorRole:    actor.Role,
		TargetStatus: target,
		Note:         req.Note,
	})
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Submission status updated", fiber.Map{"submission": sub}, nil)
}

// OracleFailed POST /api/v1/review/submissions/:id/oracle-failed — record
// that automated verification could not run for a pending submission.
func (h *Handlers) OracleFailed(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	subID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid submission ID", fiber.StatusBadRequest, nil)
	}
	sub, err := h.Submissions.MarkOracleFailed(c.Context(), subID, actor.Fullname, actor.Role)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Submission marked as verification failed", fiber.Map{"submission": sub}, nil)
}

// Queue GET /api/v1/review/queue — submissions awaiting review, oldest first.
// Optional ?statuses=PENDING,IN_REVIEW filter; defaults to all non-terminal
// review states.
func (h *Handlers) Queue(c *fiber.Ctx) error {
	var statuses []string
	if q := c.Query("statuses"); q != "" {
		for _, s := range strings.Split(q, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				statuses = append(statuses, s)
			}
		}
	} else {
		statuses = []string{
			constants.SubPending,
			constants.SubInReview,
			constants.SubFieldCheck,
			constants.SubAIVerified,
			constants.SubAIFailed,
			constants.SubNGOApproved,
		}
	}
	subs, err := h.Submissions.ListByStatus(c.Context(), statuses...)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Review queue retrieved", fiber.Map{"submissions": subs}, fiber.Map{"count": len(subs)})
}
