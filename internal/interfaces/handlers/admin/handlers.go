package admin

import (
	creditssvc "bluecarbon-backend/internal/application/credits"
	registrysvc "bluecarbon-backend/internal/application/registry"
	trustsvc "bluecarbon-backend/internal/application/trust"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for admin control endpoints.
type Handlers struct {
	Registry *registrysvc.Service
	Credits  *creditssvc.Service
	Trust    *trustsvc.Service
}

// Pause POST /api/v1/admin/registry/pause — halt all credit issuance.
func (h *Handlers) Pause(c *fiber.Ctx) error {
	return h.setPaused(c, true, "Registry paused")
}

// Resume POST /api/v1/admin/registry/resume — resume credit issuance.
func (h *Handlers) Resume(c *fiber.Ctx) error {
	return h.setPaused(c, false, "Registry resumed")
}

func (h *Handlers) setPaused(c *fiber.Ctx, paused bool, message string) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	state, err := h.Registry.SetPaused(c.Context(), paused, actor.UserID, actor.Role)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, message, fiber.Map{"registry": state}, nil)
}

// RegistryStatus GET /api/v1/admin/registry — current pause state.
func (h *Handlers) RegistryStatus(c *fiber.Ctx) error {
	paused, err := h.Registry.Paused(c.Context())
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Registry status retrieved", fiber.Map{"paused": paused}, nil)
}

// FreezeCredit POST /api/v1/admin/credits/:id/freeze — compliance hold.
func (h *Handlers) FreezeCredit(c *fiber.Ctx) error {
	return h.setCreditFrozen(c, true)
}

// UnfreezeCredit POST /api/v1/admin/credits/:id/unfreeze — lift a hold.
func (h *Handlers) UnfreezeCredit(c *fiber.Ctx) error {
	return h.setCreditFrozen(c, false)
}

func (h *Handlers) setCreditFrozen(c *fiber.Ctx, freeze bool) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	creditID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid credit ID", fiber.StatusBadRequest, nil)
	}
	var credit interface{}
	var svcErr error
	var message string
	if freeze {
		credit, svcErr = h.Credits.Freeze(c.Context(), creditID, actor.Role)
		message = "Credit frozen"
	} else {
		credit, svcErr = h.Credits.Unfreeze(c.Context(), creditID, actor.Role)
		message = "Credit unfrozen"
	}
	if svcErr != nil {
		return response.FromError(c, svcErr, apperr.HTTPStatus(svcErr))
	}
	return response.Success(c, message, fiber.Map{"credit": credit}, nil)
}

// SetUserStatusRequest body for account freeze/unfreeze.
type SetUserStatusRequest struct {
	Status string `json:"status"`
}

// SetUserStatus PATCH /api/v1/admin/users/:id/status — freeze or unfreeze an account.
func (h *Handlers) SetUserStatus(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user ID", fiber.StatusBadRequest, nil)
	}
	var req SetUserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "status is required", fiber.StatusBadRequest, nil)
	}
	user, err := h.Trust.SetUserStatus(c.Context(), userID, req.Status, actor.Role)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "User status updated", fiber.Map{"user": user}, nil)
}

// SetTrustScoreRequest body for trust-score override.
type SetTrustScoreRequest struct {
	Score int `json:"score"`
}

// SetTrustScore PATCH /api/v1/admin/users/:id/trust-score
func (h *Handlers) SetTrustScore(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user ID", fiber.StatusBadRequest, nil)
	}
	var req SetTrustScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "score is required", fiber.StatusBadRequest, nil)
	}
	user, err := h.Trust.SetTrustScore(c.Context(), userID, req.Score, actor.Role)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Trust score updated", fiber.Map{"user": user}, nil)
}

// RiskOverview GET /api/v1/admin/risk — agreement rate and risk counters.
func (h *Handlers) RiskOverview(c *fiber.Ctx) error {
	overview, err := h.Trust.RiskOverview(c.Context())
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Risk overview retrieved", fiber.Map{"overview": overview}, nil)
}
