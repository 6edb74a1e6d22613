package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

// UserService manages staff accounts.
type UserService interface {
	Create(ctx context.Context, actor models.Actor, payload dto.UserCreateRequest) (dto.UserResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	GetByEmail(ctx context.Context, email string) (dto.UserResponse, error)
	ListByRole(ctx context.Context, role string) ([]dto.UserResponse, error)
	Update(ctx context.Context, actor models.Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	RecordLogin(ctx context.Context, id uint) (dto.UserResponse, error)
	Deactivate(ctx context.Context, actor models.Actor, id uint) error
}

type userService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService constructs the user service.
func NewUserService(repos repository.Repositories, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repos:     repos,
		tx:        tx,
		activity:  activity,
		validator: validator,
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       time.Now,
	}
}

func (s *userService) Create(ctx context.Context, actor models.Actor, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	ctx, span := startSpan(ctx, "users.create", attribute.String("user.role", payload.Role))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(payload.Name),
		Role:         payload.Role,
		PasswordHash: payload.PasswordHash,
		IsActive:     true,
		PhoneNumber:  strings.TrimSpace(payload.PhoneNumber),
		Department:   strings.TrimSpace(payload.Department),
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.GetByEmail(ctx, email); err == nil {
			return duplicate("user with email", email)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := repos.Users.Create(ctx, &user); err != nil {
			return err
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "user_created",
			TargetType: string(tracker.TargetUser),
			TargetID:   idString(user.ID),
			Metadata:   map[string]interface{}{"role": user.Role},
		})
	})
	if err != nil {
		return dto.UserResponse{}, failMutation(span, "users.create", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user", id)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (dto.UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user", email)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) ListByRole(ctx context.Context, role string) ([]dto.UserResponse, error) {
	users, err := s.repos.Users.ListByRole(ctx, strings.ToLower(strings.TrimSpace(role)))
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) Update(ctx context.Context, actor models.Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	ctx, span := startSpan(ctx, "users.update", attribute.Int64("user.id", int64(id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*payload.PhoneNumber)
	}
	if payload.Department != nil {
		updates["department"] = strings.TrimSpace(*payload.Department)
	}
	if payload.ProfileImage != nil {
		updates["profile_image"] = strings.TrimSpace(*payload.ProfileImage)
	}

	var updated models.User
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		before, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "user", id)
		}
		if len(updates) == 0 {
			updated = before
			return nil
		}

		updated, err = repos.Users.Update(ctx, id, updates)
		if err != nil {
			return lookupError(err, "user", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "user_updated",
			TargetType: string(tracker.TargetUser),
			TargetID:   idString(id),
			Before:     dto.NewUserResponse(before),
			After:      dto.NewUserResponse(updated),
		})
	})
	if err != nil {
		return dto.UserResponse{}, failMutation(span, "users.update", err)
	}

	return dto.NewUserResponse(updated), nil
}

func (s *userService) RecordLogin(ctx context.Context, id uint) (dto.UserResponse, error) {
	ctx, span := startSpan(ctx, "users.login", attribute.Int64("user.id", int64(id)))
	defer span.End()

	var updated models.User
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		var err error
		updated, err = repos.Users.Update(ctx, id, map[string]interface{}{"last_login": s.now()})
		if err != nil {
			return lookupError(err, "user", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      models.UserActor(id, updated.Role),
			Action:     "user_login",
			TargetType: string(tracker.TargetUser),
			TargetID:   idString(id),
			Metadata:   map[string]interface{}{"role": updated.Role},
			Event: &ActivityEvent{
				Type:     "user_login",
				Category: string(tracker.CategoryAuth),
				Data:     map[string]interface{}{"userRole": updated.Role},
			},
		})
	})
	if err != nil {
		return dto.UserResponse{}, failMutation(span, "users.login", err)
	}

	return dto.NewUserResponse(updated), nil
}

func (s *userService) Deactivate(ctx context.Context, actor models.Actor, id uint) error {
	ctx, span := startSpan(ctx, "users.deactivate", attribute.Int64("user.id", int64(id)))
	defer span.End()

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
			return lookupError(err, "user", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "user_deactivated",
			TargetType: string(tracker.TargetUser),
			TargetID:   idString(id),
		})
	})
	if err != nil {
		return failMutation(span, "users.deactivate", err)
	}
	return nil
}
