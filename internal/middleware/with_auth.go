package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// Auth levels understood by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleManager = "manager"
	AuthRoleAdmin   = models.RoleAdmin
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards a single handler. The manager level admits admins and moderators.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && c.Locals("user_id") == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		current := normalizeRoleValue(c.Locals("user_role"))
		switch role {
		case AuthRoleAny:
		case AuthRoleManager:
			if current != models.RoleAdmin && current != models.RoleModerator {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			if current != role {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
