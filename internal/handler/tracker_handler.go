package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/utils"
)

// TrackerSessionHeader carries the tracker session a client opened with POST /sessions.
const TrackerSessionHeader = "X-Tracker-Session"

const trackerLocal = "tracker"

// TrackerHandler exposes per-client activity trackers over HTTP.
type TrackerHandler struct {
	sessions  *tracker.Registry
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTrackerHandler constructs the tracker handler.
func NewTrackerHandler(sessions *tracker.Registry, validator *validator.Validate, logger zerolog.Logger) *TrackerHandler {
	return &TrackerHandler{
		sessions:  sessions,
		validator: validator,
		logger:    logger.With().Str("component", "tracker_handler").Logger(),
	}
}

// Register attaches read routes; write routes go through RegisterWrites so they can be rate limited.
func (h *TrackerHandler) Register(router fiber.Router) {
	router.Get("/session", h.withSession, h.session)
	router.Get("/events", h.withSession, h.events)
	router.Get("/user-logs", h.withSession, h.userLogs)
}

// RegisterWrites attaches the recording routes, each preceded by guards.
func (h *TrackerHandler) RegisterWrites(router fiber.Router, guards ...fiber.Handler) {
	route := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), h.withSession, handler)
	}

	router.Post("/sessions", append(append([]fiber.Handler{}, guards...), h.open)...)
	router.Delete("/session", route(h.end)...)
	router.Post("/identify", route(h.identify)...)
	router.Post("/login", route(h.login)...)
	router.Post("/logout", route(h.logout)...)
	router.Post("/page-views", route(h.pageView)...)
	router.Post("/events", route(h.trackEvent)...)
	router.Post("/user-logs", route(h.logUserAction)...)
	router.Post("/classes", route(h.classCreated)...)
	router.Post("/enrollments", route(h.studentEnrolled)...)
	router.Post("/credits", route(h.creditAwarded)...)
	router.Post("/messages", route(h.messageSent)...)
	router.Delete("/", route(h.clear)...)
}

// withSession resolves the caller's tracker from TrackerSessionHeader.
func (h *TrackerHandler) withSession(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Get(TrackerSessionHeader))
	if sessionID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, TrackerSessionHeader+" header is required")
	}
	tr, ok := h.sessions.Get(sessionID)
	if !ok {
		return utils.SendError(c, fiber.StatusNotFound, "tracker session not found")
	}
	c.Locals(trackerLocal, tr)
	return c.Next()
}

func sessionTracker(c *fiber.Ctx) *tracker.Tracker {
	tr, _ := c.Locals(trackerLocal).(*tracker.Tracker)
	return tr
}

func (h *TrackerHandler) open(c *fiber.Ctx) error {
	tr := h.sessions.Open(c.UserContext(), tracker.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	requestLogger(h.logger, c).Debug().Str("session_id", tr.SessionID()).Msg("tracker session opened")

	c.Set(TrackerSessionHeader, tr.SessionID())
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "tracker session opened", sessionResponse(tr))
}

func (h *TrackerHandler) end(c *fiber.Ctx) error {
	tr := sessionTracker(c)
	tr.ClearStoredData(c.UserContext())
	h.sessions.Close(tr.SessionID())
	return utils.SendSuccess(c, "tracker session ended", nil)
}

func (h *TrackerHandler) session(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "tracker session", sessionResponse(sessionTracker(c)))
}

func (h *TrackerHandler) events(c *fiber.Ctx) error {
	if c.Query("source") == "stored" {
		return utils.SendSuccess(c, "stored events retrieved", sessionTracker(c).StoredEvents(c.UserContext()))
	}
	return utils.SendSuccess(c, "events retrieved", sessionTracker(c).Events())
}

func (h *TrackerHandler) userLogs(c *fiber.Ctx) error {
	if c.Query("source") == "stored" {
		return utils.SendSuccess(c, "stored user logs retrieved", sessionTracker(c).StoredUserLogs(c.UserContext()))
	}
	return utils.SendSuccess(c, "user logs retrieved", sessionTracker(c).UserLogs())
}

func (h *TrackerHandler) identify(c *fiber.Ctx) error {
	var payload dto.TrackerIdentifyRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	sessionTracker(c).SetUserID(c.UserContext(), payload.UserID)
	return h.accepted(c, "user identified")
}

func (h *TrackerHandler) login(c *fiber.Ctx) error {
	var payload dto.TrackerIdentifyRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	sessionTracker(c).TrackLogin(c.UserContext(), payload.UserID)
	return h.accepted(c, "login tracked")
}

func (h *TrackerHandler) logout(c *fiber.Ctx) error {
	sessionTracker(c).TrackLogout(c.UserContext())
	return h.accepted(c, "logout tracked")
}

func (h *TrackerHandler) pageView(c *fiber.Ctx) error {
	var payload dto.TrackerPageViewRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	sessionTracker(c).TrackPageView(c.UserContext(), payload.Page)
	return h.accepted(c, "page view tracked")
}

func (h *TrackerHandler) trackEvent(c *fiber.Ctx) error {
	var payload dto.TrackerEventRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	tr := sessionTracker(c)
	if payload.SessionID != "" && payload.SessionID != tr.SessionID() {
		return utils.SendError(c, fiber.StatusBadRequest, "sessionId does not match the tracker session")
	}

	event := tracker.Event{
		EventType:     payload.EventType,
		EventCategory: tracker.Category(payload.EventCategory),
		UserID:        payload.UserID,
		SessionID:     payload.SessionID,
		Data:          tracker.Payload(payload.Data),
	}
	if payload.Duration != nil {
		event.Metadata = &tracker.EventMetadata{Duration: payload.Duration}
	}
	tr.TrackEvent(c.UserContext(), event)
	return h.accepted(c, "event tracked")
}

func (h *TrackerHandler) logUserAction(c *fiber.Ctx) error {
	var payload dto.TrackerUserLogRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}

	entry := tracker.UserLog{
		UserID:     payload.UserID,
		Action:     payload.Action,
		TargetType: tracker.TargetType(payload.TargetType),
		TargetID:   payload.TargetID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	}
	if payload.Before != nil || payload.After != nil || payload.Metadata != nil {
		entry.Details = &tracker.LogDetails{Before: payload.Before, After: payload.After}
		if payload.Metadata != nil {
			entry.Details.Metadata = payload.Metadata
		}
	}
	sessionTracker(c).LogUserAction(c.UserContext(), entry)
	return h.accepted(c, "user action logged")
}

func (h *TrackerHandler) classCreated(c *fiber.Ctx) error {
	var payload dto.TrackerClassCreatedRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	err := sessionTracker(c).TrackClassCreated(c.UserContext(), payload.ClassID, tracker.ClassSummary{
		Name:    payload.Name,
		Subject: payload.Subject,
		Grade:   payload.Grade,
	})
	return h.compound(c, err, "class creation tracked")
}

func (h *TrackerHandler) studentEnrolled(c *fiber.Ctx) error {
	var payload dto.TrackerEnrollmentRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	err := sessionTracker(c).TrackStudentEnrolled(c.UserContext(), payload.StudentID, payload.ClassID)
	return h.compound(c, err, "enrollment tracked")
}

func (h *TrackerHandler) creditAwarded(c *fiber.Ctx) error {
	var payload dto.TrackerCreditRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	err := sessionTracker(c).TrackCreditAwarded(c.UserContext(), payload.CreditID, payload.StudentID, payload.Amount)
	return h.compound(c, err, "credit award tracked")
}

func (h *TrackerHandler) messageSent(c *fiber.Ctx) error {
	var payload dto.TrackerMessageRequest
	if msg := bindBody(c, h.validator, &payload); msg != "" {
		return utils.SendError(c, fiber.StatusBadRequest, msg)
	}
	err := sessionTracker(c).TrackMessageSent(c.UserContext(), payload.MessageID, payload.ReceiverID, payload.MessageType)
	return h.compound(c, err, "message tracked")
}

func (h *TrackerHandler) clear(c *fiber.Ctx) error {
	sessionTracker(c).ClearStoredData(c.UserContext())
	return utils.SendSuccess(c, "tracker data cleared", sessionResponse(sessionTracker(c)))
}

func (h *TrackerHandler) compound(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, tracker.ErrNoCurrentUser) {
		requestLogger(h.logger, c).Warn().Err(err).Msg("tracker has no current user")
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	}
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("tracker operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "tracker operation failed")
	}
	return h.accepted(c, message)
}

func (h *TrackerHandler) accepted(c *fiber.Ctx, message string) error {
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, message, sessionResponse(sessionTracker(c)))
}

func sessionResponse(tr *tracker.Tracker) dto.TrackerSessionResponse {
	userID, identified := tr.UserID()
	return dto.TrackerSessionResponse{
		SessionID:    tr.SessionID(),
		UserID:       userID,
		EventCount:   tr.EventCount(),
		UserLogCount: tr.UserLogCount(),
		Identified:   identified,
	}
}
