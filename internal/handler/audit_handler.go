package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// AuditHandler exposes the durable audit trail and telemetry events.
type AuditHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.ActivityService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit routes to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/user-logs", h.userLogs)
	router.Get("/events", h.events)
}

func (h *AuditHandler) userLogs(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	since, until, err := parseRange(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListUserLogs(c.UserContext(), dto.UserLogListRequest{
		Page:       page,
		PageSize:   pageSize,
		UserID:     c.Query("user_id"),
		ActorType:  c.Query("actor_type"),
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
		Since:      since,
		Until:      until,
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list user logs")
	}
	return utils.SendSuccess(c, "user logs retrieved", response)
}

func (h *AuditHandler) events(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	since, until, err := parseRange(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListEvents(c.UserContext(), dto.EventListRequest{
		Page:      page,
		PageSize:  pageSize,
		EventType: c.Query("event_type"),
		Category:  c.Query("category"),
		UserID:    c.Query("user_id"),
		SessionID: c.Query("session_id"),
		Since:     since,
		Until:     until,
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list events")
	}
	return utils.SendSuccess(c, "events retrieved", response)
}

func parseRange(c *fiber.Ctx) (int64, int64, error) {
	since, err := parseQueryInt64(c, "since")
	if err != nil {
		return 0, 0, errInvalidRange
	}
	until, err := parseQueryInt64(c, "until")
	if err != nil {
		return 0, 0, errInvalidRange
	}
	return since, until, nil
}
