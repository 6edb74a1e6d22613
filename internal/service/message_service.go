package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

const (
	defaultInboxLimit        = 50
	defaultAnnouncementLimit = 20
)

// MessageService delivers messages between staff and to classes.
type MessageService interface {
	Send(ctx context.Context, actor models.Actor, payload dto.MessageSendRequest) (dto.MessageResponse, error)
	MarkRead(ctx context.Context, actor models.Actor, id uint) (dto.MessageResponse, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
	Inbox(ctx context.Context, userID uint, limit int) ([]dto.MessageResponse, error)
	Sent(ctx context.Context, userID uint, limit int) ([]dto.MessageResponse, error)
	ClassAnnouncements(ctx context.Context, classID uint, limit int) ([]dto.MessageResponse, error)
	UnreadCount(ctx context.Context, userID uint) (dto.UnreadCountResponse, error)
}

type messageService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMessageService constructs the message service.
func NewMessageService(repos repository.Repositories, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) MessageService {
	return &messageService{
		repos:     repos,
		tx:        tx,
		activity:  activity,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "message_service").Logger(),
		now:       time.Now,
	}
}

func (s *messageService) Send(ctx context.Context, actor models.Actor, payload dto.MessageSendRequest) (dto.MessageResponse, error) {
	ctx, span := startSpan(ctx, "messages.send", attribute.String("message.type", payload.Type))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, err
	}
	if payload.Type == models.MessageTypeClassAnnouncement && payload.ClassID == nil {
		return dto.MessageResponse{}, failMutation(span, "messages.send", fmtInvalidState("class announcement requires class_id"))
	}
	if payload.Type == models.MessageTypeDirect && payload.ReceiverID == nil {
		return dto.MessageResponse{}, failMutation(span, "messages.send", fmtInvalidState("direct message requires receiver_id"))
	}

	priority := payload.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	message := models.Message{
		SenderID:    actor.ID(),
		ReceiverID:  payload.ReceiverID,
		ClassID:     payload.ClassID,
		Subject:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Subject)),
		Content:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Content)),
		Type:        payload.Type,
		Priority:    priority,
		Attachments: datatypes.JSONSlice[string](payload.Attachments),
		CreatedAt:   s.now(),
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if message.ReceiverID != nil {
			if _, err := repos.Users.GetByID(ctx, *message.ReceiverID); err != nil {
				return lookupError(err, "user", *message.ReceiverID)
			}
		}
		if message.ClassID != nil {
			if _, err := repos.Classes.GetByID(ctx, *message.ClassID); err != nil {
				return lookupError(err, "class", *message.ClassID)
			}
		}
		if err := repos.Messages.Create(ctx, &message); err != nil {
			return err
		}

		metadata := map[string]interface{}{
			"type":    message.Type,
			"subject": message.Subject,
		}
		if message.ReceiverID != nil {
			metadata["receiverId"] = idString(*message.ReceiverID)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "message_sent",
			TargetType: string(tracker.TargetMessage),
			TargetID:   idString(message.ID),
			Metadata:   metadata,
			Event: &ActivityEvent{
				Type:     "message_sent",
				Category: string(tracker.CategoryMessage),
				Data: map[string]interface{}{
					"messageId":      idString(message.ID),
					"type":           message.Type,
					"priority":       message.Priority,
					"hasAttachments": len(message.Attachments) > 0,
				},
			},
		})
	})
	if err != nil {
		return dto.MessageResponse{}, failMutation(span, "messages.send", err)
	}

	return dto.NewMessageResponse(message), nil
}

// MarkRead is allowed for the receiver only.
func (s *messageService) MarkRead(ctx context.Context, actor models.Actor, id uint) (dto.MessageResponse, error) {
	ctx, span := startSpan(ctx, "messages.mark_read", attribute.Int64("message.id", int64(id)))
	defer span.End()

	var updated models.Message
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		message, err := repos.Messages.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "message", id)
		}
		if message.ReceiverID == nil || *message.ReceiverID != actor.ID() {
			return ErrUnauthorized
		}

		updated, err = repos.Messages.Update(ctx, id, map[string]interface{}{
			"is_read": true,
			"read_at": s.now(),
		})
		if err != nil {
			return lookupError(err, "message", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "message_read",
			TargetType: string(tracker.TargetMessage),
			TargetID:   idString(id),
		})
	})
	if err != nil {
		return dto.MessageResponse{}, failMutation(span, "messages.mark_read", err)
	}

	return dto.NewMessageResponse(updated), nil
}

// Delete removes the message for good. Only its sender or receiver may do so.
func (s *messageService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	ctx, span := startSpan(ctx, "messages.delete", attribute.Int64("message.id", int64(id)))
	defer span.End()

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		message, err := repos.Messages.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "message", id)
		}
		isReceiver := message.ReceiverID != nil && *message.ReceiverID == actor.ID()
		if message.SenderID != actor.ID() && !isReceiver {
			return ErrUnauthorized
		}

		if err := repos.Messages.Delete(ctx, id); err != nil {
			return lookupError(err, "message", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "message_deleted",
			TargetType: string(tracker.TargetMessage),
			TargetID:   idString(id),
			Before:     dto.NewMessageResponse(message),
		})
	})
	if err != nil {
		return failMutation(span, "messages.delete", err)
	}
	return nil
}

func (s *messageService) Inbox(ctx context.Context, userID uint, limit int) ([]dto.MessageResponse, error) {
	return s.list(ctx, repository.MessageFilter{ReceiverID: &userID, Limit: limitOrDefault(limit, defaultInboxLimit)})
}

func (s *messageService) Sent(ctx context.Context, userID uint, limit int) ([]dto.MessageResponse, error) {
	return s.list(ctx, repository.MessageFilter{SenderID: &userID, Limit: limitOrDefault(limit, defaultInboxLimit)})
}

func (s *messageService) ClassAnnouncements(ctx context.Context, classID uint, limit int) ([]dto.MessageResponse, error) {
	return s.list(ctx, repository.MessageFilter{
		ClassID: &classID,
		Type:    models.MessageTypeClassAnnouncement,
		Limit:   limitOrDefault(limit, defaultAnnouncementLimit),
	})
}

func (s *messageService) UnreadCount(ctx context.Context, userID uint) (dto.UnreadCountResponse, error) {
	count, err := s.repos.Messages.Count(ctx, repository.MessageFilter{ReceiverID: &userID, UnreadOnly: true})
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	return dto.UnreadCountResponse{Unread: count}, nil
}

func (s *messageService) list(ctx context.Context, filter repository.MessageFilter) ([]dto.MessageResponse, error) {
	messages, err := s.repos.Messages.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewMessageResponseSlice(messages), nil
}

func limitOrDefault(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
