package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/middleware"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// CreditHandler wires credit endpoints.
type CreditHandler struct {
	service   service.CreditService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCreditHandler constructs the handler.
func NewCreditHandler(service service.CreditService, validator *validator.Validate, logger zerolog.Logger) *CreditHandler {
	return &CreditHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "credit_handler").Logger(),
	}
}

// Register attaches credit routes. Decisions are limited to admins and moderators.
func (h *CreditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/statistics", h.statistics)
	router.Post("", h.award)
	router.Post("/:id/approve", middleware.WithAuth(h.approve, middleware.AuthOptions{Role: middleware.AuthRoleManager}))
	router.Post("/:id/reject", middleware.WithAuth(h.reject, middleware.AuthOptions{Role: middleware.AuthRoleManager}))
}

func (h *CreditHandler) list(c *fiber.Ctx) error {
	req := dto.CreditListRequest{Status: c.Query("status")}
	var err error
	if req.StudentID, err = parseQueryUint(c, "student_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student_id")
	}
	if req.ClassID, err = parseQueryUint(c, "class_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class_id")
	}
	if req.TeacherID, err = parseQueryUint(c, "teacher_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid teacher_id")
	}

	credits, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list credits")
	}
	return utils.SendSuccess(c, "credits retrieved", credits)
}

// statistics accepts optional start/end bounds as epoch milliseconds.
func (h *CreditHandler) statistics(c *fiber.Ctx) error {
	start, err := parseQueryInt64(c, "start")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid start")
	}
	end, err := parseQueryInt64(c, "end")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid end")
	}

	stats, err := h.service.Statistics(c.UserContext(), millisOrNil(start), millisOrNil(end))
	if err != nil {
		return sendServiceError(c, h.logger, err, "compute credit statistics")
	}
	return utils.SendSuccess(c, "credit statistics", stats)
}

func (h *CreditHandler) award(c *fiber.Ctx) error {
	var payload dto.CreditAwardRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	credit, err := h.service.Award(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "award credits")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "credits awarded", credit)
}

func (h *CreditHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	credit, err := h.service.Approve(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "approve credits")
	}
	return utils.SendSuccess(c, "credits approved", credit)
}

func (h *CreditHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	credit, err := h.service.Reject(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "reject credits")
	}
	return utils.SendSuccess(c, "credits rejected", credit)
}

func millisOrNil(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
