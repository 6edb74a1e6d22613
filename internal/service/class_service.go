package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

// ClassService manages classes.
type ClassService interface {
	Create(ctx context.Context, actor models.Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassResponse, error)
	List(ctx context.Context, req dto.ClassListRequest) ([]dto.ClassResponse, error)
	Update(ctx context.Context, actor models.Actor, id uint, payload dto.ClassUpdateRequest) (dto.ClassResponse, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
}

type classService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(repos repository.Repositories, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) ClassService {
	return &classService{
		repos:     repos,
		tx:        tx,
		activity:  activity,
		validator: validator,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, actor models.Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	ctx, span := startSpan(ctx, "classes.create", attribute.Int64("class.teacher_id", int64(payload.TeacherID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}
	if actor.Role == models.RoleTeacher && payload.TeacherID != actor.ID() {
		return dto.ClassResponse{}, failMutation(span, "classes.create", ErrUnauthorized)
	}

	class := models.Class{
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
		TeacherID:   payload.TeacherID,
		Subject:     strings.TrimSpace(payload.Subject),
		Grade:       strings.TrimSpace(payload.Grade),
		Room:        strings.TrimSpace(payload.Room),
		Schedule:    datatypes.NewJSONType(scheduleFromRequest(payload.Schedule)),
		MaxStudents: payload.MaxStudents,
		CreditValue: payload.CreditValue,
		IsActive:    true,
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Classes.Create(ctx, &class); err != nil {
			return err
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "class_created",
			TargetType: string(tracker.TargetClass),
			TargetID:   idString(class.ID),
			After:      dto.NewClassResponse(class),
			Event: &ActivityEvent{
				Type:     "class_created",
				Category: string(tracker.CategoryClass),
				Data: map[string]interface{}{
					"classId": idString(class.ID),
					"subject": class.Subject,
					"grade":   class.Grade,
				},
			},
		})
	})
	if err != nil {
		return dto.ClassResponse{}, failMutation(span, "classes.create", err)
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("teacher_id", class.TeacherID).Msg("class created")
	return dto.NewClassResponse(class), nil
}

func (s *classService) Get(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.repos.Classes.GetByID(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, lookupError(err, "class", id)
	}
	return dto.NewClassResponse(class), nil
}

func (s *classService) List(ctx context.Context, req dto.ClassListRequest) ([]dto.ClassResponse, error) {
	filter := repository.ClassFilter{
		Subject: strings.TrimSpace(req.Subject),
		Grade:   strings.TrimSpace(req.Grade),
	}
	if req.TeacherID > 0 {
		filter.TeacherID = &req.TeacherID
	}

	classes, err := s.repos.Classes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Update(ctx context.Context, actor models.Actor, id uint, payload dto.ClassUpdateRequest) (dto.ClassResponse, error) {
	ctx, span := startSpan(ctx, "classes.update", attribute.Int64("class.id", int64(id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		updates["description"] = strings.TrimSpace(*payload.Description)
	}
	if payload.Subject != nil {
		updates["subject"] = strings.TrimSpace(*payload.Subject)
	}
	if payload.Grade != nil {
		updates["grade"] = strings.TrimSpace(*payload.Grade)
	}
	if payload.Room != nil {
		updates["room"] = strings.TrimSpace(*payload.Room)
	}
	if payload.Schedule != nil {
		updates["schedule"] = datatypes.NewJSONType(scheduleFromRequest(*payload.Schedule))
	}
	if payload.MaxStudents != nil {
		updates["max_students"] = *payload.MaxStudents
	}
	if payload.CreditValue != nil {
		updates["credit_value"] = *payload.CreditValue
	}

	var updated models.Class
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		before, err := repos.Classes.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "class", id)
		}
		if err := authorizeClassOwner(actor, before); err != nil {
			return err
		}
		if limit, ok := updates["max_students"].(int); ok && limit < before.CurrentStudents {
			return fmtInvalidState("max_students below current enrollment")
		}
		if len(updates) == 0 {
			updated = before
			return nil
		}

		updated, err = repos.Classes.Update(ctx, id, updates)
		if err != nil {
			return lookupError(err, "class", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "class_updated",
			TargetType: string(tracker.TargetClass),
			TargetID:   idString(id),
			Before:     dto.NewClassResponse(before),
			After:      dto.NewClassResponse(updated),
		})
	})
	if err != nil {
		return dto.ClassResponse{}, failMutation(span, "classes.update", err)
	}

	return dto.NewClassResponse(updated), nil
}

// Delete archives the class; enrollment and credit history keep referring to it.
func (s *classService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	ctx, span := startSpan(ctx, "classes.delete", attribute.Int64("class.id", int64(id)))
	defer span.End()

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		class, err := repos.Classes.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "class", id)
		}
		if err := authorizeClassOwner(actor, class); err != nil {
			return err
		}
		if _, err := repos.Classes.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
			return lookupError(err, "class", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "class_deleted",
			TargetType: string(tracker.TargetClass),
			TargetID:   idString(id),
			Before:     dto.NewClassResponse(class),
		})
	})
	if err != nil {
		return failMutation(span, "classes.delete", err)
	}
	return nil
}

func authorizeClassOwner(actor models.Actor, class models.Class) error {
	if actor.Role == models.RoleTeacher && class.TeacherID != actor.ID() {
		return ErrUnauthorized
	}
	return nil
}

func scheduleFromRequest(req dto.ClassScheduleRequest) models.ClassSchedule {
	return models.ClassSchedule{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}
