package middleware

import (
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Actor is the session user resolved into the fields handlers need.
type Actor struct {
	UserID   string
	Fullname string
	Email    string
	Role     string
	Status   string
}

// GetActor resolves the session user map into an Actor (nil if not logged in
// or malformed).
func GetActor(c *fiber.Ctx) *Actor {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	id, _ := m["user_id"].(string)
	if id == "" {
		return nil
	}
	a := &Actor{UserID: id}
	a.Fullname, _ = m["fullname"].(string)
	a.Email, _ = m["email"].(string)
	a.Role, _ = m["role"].(string)
	a.Status, _ = m["status"].(string)
	return a
}
