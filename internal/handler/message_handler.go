package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// MessageHandler wires messaging endpoints for the authenticated user.
type MessageHandler struct {
	service   service.MessageService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(service service.MessageService, validator *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register attaches message routes to the router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Get("/inbox", h.inbox)
	router.Get("/sent", h.sent)
	router.Get("/unread-count", h.unreadCount)
	router.Post("", h.send)
	router.Patch("/:id/read", h.markRead)
	router.Delete("/:id", h.delete)
}

func (h *MessageHandler) inbox(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	messages, err := h.service.Inbox(c.UserContext(), userIDFromContext(c), limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list inbox")
	}
	return utils.SendSuccess(c, "inbox retrieved", messages)
}

func (h *MessageHandler) sent(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	messages, err := h.service.Sent(c.UserContext(), userIDFromContext(c), limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list sent messages")
	}
	return utils.SendSuccess(c, "sent messages retrieved", messages)
}

func (h *MessageHandler) unreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "count unread messages")
	}
	return utils.SendSuccess(c, "unread count", count)
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	var payload dto.MessageSendRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	message, err := h.service.Send(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "send message")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MessageHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	message, err := h.service.MarkRead(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "mark message read")
	}
	return utils.SendSuccess(c, "message marked as read", message)
}

func (h *MessageHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "delete message")
	}
	return utils.SendSuccess(c, "message deleted", nil)
}
