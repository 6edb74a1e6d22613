package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/middleware"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// UserHandler wires staff account endpoints.
type UserHandler struct {
	service   service.UserService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, validator *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user routes. Creating and deactivating accounts is reserved for admins.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/me", h.me)
	router.Post("/me/login", h.recordLogin)
	router.Get("/:id", h.get)
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Patch("/:id", h.update)
	router.Delete("/:id", middleware.WithAuth(h.deactivate, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	if email := strings.TrimSpace(c.Query("email")); email != "" {
		user, err := h.service.GetByEmail(c.UserContext(), email)
		if err != nil {
			return sendServiceError(c, h.logger, err, "load user")
		}
		return utils.SendSuccess(c, "user retrieved", []dto.UserResponse{user})
	}

	role := strings.TrimSpace(c.Query("role"))
	if role == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "role or email query required")
	}
	users, err := h.service.ListByRole(c.UserContext(), role)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list users")
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "load user")
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) recordLogin(c *fiber.Ctx) error {
	user, err := h.service.RecordLogin(requestContext(c), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "record login")
	}
	return utils.SendSuccess(c, "login recorded", user)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "load user")
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	user, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "create user")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

// update lets users edit their own profile; admins may edit anyone.
func (h *UserHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	actor := actorFromContext(c)
	if id != actor.ID() && actor.Role != middleware.AuthRoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	var payload dto.UserUpdateRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	user, err := h.service.Update(requestContext(c), actor, id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "update user")
	}
	return utils.SendSuccess(c, "user updated", user)
}

func (h *UserHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Deactivate(requestContext(c), actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "deactivate user")
	}
	return utils.SendSuccess(c, "user deactivated", nil)
}
