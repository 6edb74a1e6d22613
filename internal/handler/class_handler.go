package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// ClassHandler wires class endpoints.
type ClassHandler struct {
	service   service.ClassService
	messages  service.MessageService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(service service.ClassService, messages service.MessageService, validator *validator.Validate, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service:   service,
		messages:  messages,
		validator: validator,
		logger:    logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class routes to the router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/announcements", h.announcements)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	teacherID, err := parseQueryUint(c, "teacher_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid teacher_id")
	}

	classes, err := h.service.List(c.UserContext(), dto.ClassListRequest{
		TeacherID: teacherID,
		Subject:   c.Query("subject"),
		Grade:     c.Query("grade"),
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list classes")
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	class, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "load class")
	}
	return utils.SendSuccess(c, "class retrieved", class)
}

func (h *ClassHandler) announcements(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	messages, err := h.messages.ClassAnnouncements(c.UserContext(), id, limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list announcements")
	}
	return utils.SendSuccess(c, "announcements retrieved", messages)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	class, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "create class")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ClassUpdateRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	class, err := h.service.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "update class")
	}
	return utils.SendSuccess(c, "class updated", class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "delete class")
	}
	return utils.SendSuccess(c, "class archived", nil)
}
