package users

import (
	userssvc "bluecarbon-backend/internal/application/users"
	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for user endpoints.
type Handlers struct {
	Users *userssvc.Service
}

func sanitize(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":           u.UserID.String(),
		"user_name":         u.UserName,
		"email":             u.Email,
		"fullname":          u.Fullname,
		"role":              u.Role,
		"status":            u.Status,
		"trust_score":       u.TrustScore,
		"earnings":          u.Earnings,
		"credits_purchased": u.CreditsPurchased,
		"createdAt":         u.CreatedAt,
	}
}

// Register POST /api/v1/users — public self-registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req userssvc.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Users.Register(c.Context(), req)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.SuccessCreated(c, "User registered successfully", fiber.Map{"user": sanitize(u)}, nil)
}

// View GET /api/v1/users/:id — view a user profile.
func (h *Handlers) View(c *fiber.Ctx) error {
	u, err := h.Users.View(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "User retrieved", fiber.Map{"user": sanitize(u)}, nil)
}

// UpdateProfile PATCH /api/v1/users/:id — self-service profile update.
// Users may only update their own profile.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	targetID := c.Params("id")
	if actor.UserID != targetID {
		return response.Error(c, "You can only update your own profile", fiber.StatusForbidden, nil)
	}
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Users.UpdateProfile(c.Context(), targetID, fields)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Profile updated", fiber.Map{"user": sanitize(u)}, nil)
}

// List GET /api/v1/users — admin listing, optional ?role= filter.
func (h *Handlers) List(c *fiber.Ctx) error {
	users, err := h.Users.List(c.Context(), c.Query("role"))
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		out = append(out, sanitize(&users[i]))
	}
	return response.Success(c, "Users retrieved", fiber.Map{"users": out}, fiber.Map{"count": len(out)})
}
