package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/observability"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
)

// ActivityEvent is the optional telemetry event written with an audit entry.
type ActivityEvent struct {
	Type     string
	Category string
	Data     map[string]interface{}
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	Actor      models.Actor
	Action     string
	TargetType string
	TargetID   string
	Before     interface{}
	After      interface{}
	Metadata   map[string]interface{}
	Event      *ActivityEvent
}

// ActivityRecorder writes audit entries through the repositories of the caller's transaction.
type ActivityRecorder interface {
	Record(ctx context.Context, repos repository.Repositories, entry ActivityEntry) error
}

// ActivityService records and queries the audit trail and telemetry events.
type ActivityService interface {
	ActivityRecorder
	ListUserLogs(ctx context.Context, req dto.UserLogListRequest) (dto.UserLogListResponse, error)
	ListEvents(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error)
}

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClientInfo attaches the caller's address and user agent to ctx for audit entries.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

func clientInfoFrom(ctx context.Context) clientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(clientInfo)
	return info
}

type activityService struct {
	repos  repository.Repositories
	logger zerolog.Logger
	now    func() time.Time
}

// NewActivityService constructs the activity log service.
func NewActivityService(repos repository.Repositories, logger zerolog.Logger) ActivityService {
	return &activityService{
		repos:  repos,
		logger: logger.With().Str("component", "activity_service").Logger(),
		now:    time.Now,
	}
}

func (s *activityService) Record(ctx context.Context, repos repository.Repositories, entry ActivityEntry) error {
	timestamp := s.now().UnixMilli()
	userID := actorUserID(entry.Actor)
	client := clientInfoFrom(ctx)

	details := datatypes.JSONMap{}
	if entry.Before != nil {
		details["before"] = entry.Before
	}
	if entry.After != nil {
		details["after"] = entry.After
	}
	if len(entry.Metadata) > 0 {
		details["metadata"] = sanitizeMetadata(entry.Metadata)
	}

	log := models.UserLog{
		ActorType:  entry.Actor.Type,
		UserID:     userID,
		Action:     strings.TrimSpace(entry.Action),
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    details,
		IPAddress:  client.ip,
		UserAgent:  client.userAgent,
		Timestamp:  timestamp,
	}
	if err := repos.UserLogs.Create(ctx, &log); err != nil {
		s.logger.Error().Err(err).Str("action", log.Action).Msg("failed to persist user log")
		return err
	}

	if entry.Event != nil {
		event := models.Event{
			EventType:     entry.Event.Type,
			EventCategory: entry.Event.Category,
			UserID:        userID,
			Data:          datatypes.JSONMap(entry.Event.Data),
			Metadata: datatypes.JSONMap{
				"source": "durable_store",
			},
			Timestamp: timestamp,
		}
		if err := repos.Events.Create(ctx, &event); err != nil {
			s.logger.Error().Err(err).Str("event_type", event.EventType).Msg("failed to persist event")
			return err
		}
	}

	observability.AuditEntries().WithLabelValues(log.Action).Inc()
	return nil
}

func (s *activityService) ListUserLogs(ctx context.Context, req dto.UserLogListRequest) (dto.UserLogListResponse, error) {
	entries, total, err := s.repos.UserLogs.List(ctx, repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		UserID:     strings.TrimSpace(req.UserID),
		ActorType:  strings.TrimSpace(req.ActorType),
		Action:     strings.TrimSpace(req.Action),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		Since:      req.Since,
		Until:      req.Until,
	})
	if err != nil {
		return dto.UserLogListResponse{}, err
	}

	items := make([]dto.UserLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewUserLogResponse(entry))
	}
	return dto.UserLogListResponse{Items: items, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func (s *activityService) ListEvents(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error) {
	events, total, err := s.repos.Events.List(ctx, repository.EventFilter{
		Page:      req.Page,
		PageSize:  req.PageSize,
		EventType: strings.TrimSpace(req.EventType),
		Category:  strings.TrimSpace(req.Category),
		UserID:    strings.TrimSpace(req.UserID),
		SessionID: strings.TrimSpace(req.SessionID),
		Since:     req.Since,
		Until:     req.Until,
	})
	if err != nil {
		return dto.EventListResponse{}, err
	}

	items := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, dto.NewEventResponse(event))
	}
	return dto.EventListResponse{Items: items, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func actorUserID(actor models.Actor) *string {
	if actor.IsSystem() || actor.UserID == "" {
		return nil
	}
	id := actor.UserID
	return &id
}

func paginationMeta(page, pageSize int, total int64) dto.PaginationMeta {
	pagination := dto.PaginationMeta{
		Page:       maxInt(page, 1),
		PageSize:   pageSize,
		TotalItems: total,
	}
	if pageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	} else {
		pagination.TotalPages = 1
	}
	return pagination
}

func sanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
