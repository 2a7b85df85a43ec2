package submissions

import (
	"encoding/base64"
	"strings"

	subssvc "bluecarbon-backend/internal/application/submissions"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for submission endpoints.
type Handlers struct {
	Submissions *subssvc.Service
}

// CreateRequest is the ingestion body. Image arrives base64-encoded from the
// mobile client; a data-URL prefix is tolerated and stripped.
type CreateRequest struct {
	EcosystemType string  `json:"ecosystem_type"`
	ImageBase64   string  `json:"image_base64"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Region        string  `json:"region"`
}

// Create POST /api/v1/submissions — community field-data ingestion.
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	authorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	raw := req.ImageBase64
	if i := strings.Index(raw, ","); i >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[i+1:]
	}
	imageBytes, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return response.Error(c, "image_base64 is not valid base64", fiber.StatusBadRequest, nil)
	}

	sub, err := h.Submissions.Create(c.Context(), subssvc.CreateInput{
		AuthorID:      authorID,
		EcosystemType: strings.ToUpper(strings.TrimSpace(req.EcosystemType)),
		ImageBytes:    imageBytes,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Region:        req.Region,
	})
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.SuccessCreated(c, "Submission created", fiber.Map{"submission": sub}, nil)
}

// Get GET /api/v1/submissions/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid submission ID", fiber.StatusBadRequest, nil)
	}
	sub, err := h.Submissions.Get(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Submission retrieved", fiber.Map{"submission": sub}, nil)
}

// Mine GET /api/v1/submissions/mine — the caller's own submissions, newest first.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	subs, err := h.Submissions.ListByUser(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Submissions retrieved", fiber.Map{"submissions": subs}, fiber.Map{"count": len(subs)})
}

// Trail GET /api/v1/submissions/:id/audit — full ordered audit trail.
func (h *Handlers) Trail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid submission ID", fiber.StatusBadRequest, nil)
	}
	entries, err := h.Submissions.Trail(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Audit trail retrieved", fiber.Map{"entries": entries}, fiber.Map{"count": len(entries)})
}
