package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

// CreditService manages credit awards and their approval.
type CreditService interface {
	Award(ctx context.Context, actor models.Actor, payload dto.CreditAwardRequest) (dto.CreditResponse, error)
	Approve(ctx context.Context, actor models.Actor, id uint) (dto.CreditResponse, error)
	Reject(ctx context.Context, actor models.Actor, id uint) (dto.CreditResponse, error)
	List(ctx context.Context, req dto.CreditListRequest) ([]dto.CreditResponse, error)
	Statistics(ctx context.Context, from, to *time.Time) (dto.CreditStatisticsResponse, error)
}

const creditStatsVersionKey = "credits:stats:version"

type creditService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCreditService constructs the credit service. cache may be nil.
func NewCreditService(repos repository.Repositories, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CreditService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &creditService{
		repos:     repos,
		tx:        tx,
		activity:  activity,
		validator: validator,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "credit_service").Logger(),
		now:       time.Now,
	}
}

// Award records a pending credit; totals change only on approval.
func (s *creditService) Award(ctx context.Context, actor models.Actor, payload dto.CreditAwardRequest) (dto.CreditResponse, error) {
	ctx, span := startSpan(ctx, "credits.award",
		attribute.Int64("credit.student_id", int64(payload.StudentID)),
		attribute.Float64("credit.amount", payload.CreditsAwarded),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.CreditResponse{}, err
	}

	credit := models.Credit{
		StudentID:      payload.StudentID,
		ClassID:        payload.ClassID,
		TeacherID:      actor.ID(),
		CreditsAwarded: payload.CreditsAwarded,
		Reason:         strings.TrimSpace(payload.Reason),
		Description:    strings.TrimSpace(payload.Description),
		Type:           payload.Type,
		Status:         models.CreditStatusPending,
		CreatedAt:      s.now(),
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Students.GetByID(ctx, payload.StudentID); err != nil {
			return lookupError(err, "student", payload.StudentID)
		}
		if _, err := repos.Classes.GetByID(ctx, payload.ClassID); err != nil {
			return lookupError(err, "class", payload.ClassID)
		}
		if err := repos.Credits.Create(ctx, &credit); err != nil {
			return err
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "credits_awarded",
			TargetType: string(tracker.TargetCredit),
			TargetID:   idString(credit.ID),
			Metadata: map[string]interface{}{
				"studentId": idString(credit.StudentID),
				"credits":   credit.CreditsAwarded,
				"reason":    credit.Reason,
			},
			Event: &ActivityEvent{
				Type:     "credits_awarded",
				Category: string(tracker.CategoryCredit),
				Data: map[string]interface{}{
					"creditId":  idString(credit.ID),
					"studentId": idString(credit.StudentID),
					"classId":   idString(credit.ClassID),
					"amount":    credit.CreditsAwarded,
					"type":      credit.Type,
				},
			},
		})
	})
	if err != nil {
		return dto.CreditResponse{}, failMutation(span, "credits.award", err)
	}

	s.invalidateStatistics(ctx)
	return dto.NewCreditResponse(credit), nil
}

func (s *creditService) Approve(ctx context.Context, actor models.Actor, id uint) (dto.CreditResponse, error) {
	ctx, span := startSpan(ctx, "credits.approve", attribute.Int64("credit.id", int64(id)))
	defer span.End()

	credit, err := s.decide(ctx, actor, id, models.CreditStatusApproved)
	if err != nil {
		return dto.CreditResponse{}, failMutation(span, "credits.approve", err)
	}
	return dto.NewCreditResponse(credit), nil
}

func (s *creditService) Reject(ctx context.Context, actor models.Actor, id uint) (dto.CreditResponse, error) {
	ctx, span := startSpan(ctx, "credits.reject", attribute.Int64("credit.id", int64(id)))
	defer span.End()

	credit, err := s.decide(ctx, actor, id, models.CreditStatusRejected)
	if err != nil {
		return dto.CreditResponse{}, failMutation(span, "credits.reject", err)
	}
	return dto.NewCreditResponse(credit), nil
}

func (s *creditService) decide(ctx context.Context, actor models.Actor, id uint, status string) (models.Credit, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleModerator {
		return models.Credit{}, ErrUnauthorized
	}

	var decided models.Credit
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		credit, err := repos.Credits.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "credit", id)
		}

		ok, err := repos.Credits.Decide(ctx, id, status, actor.ID(), s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmtInvalidState("credit is not pending approval")
		}

		entry := ActivityEntry{
			Actor:      actor,
			Action:     "credits_" + status,
			TargetType: string(tracker.TargetCredit),
			TargetID:   idString(id),
			Metadata: map[string]interface{}{
				"studentId": idString(credit.StudentID),
				"credits":   credit.CreditsAwarded,
			},
		}
		if status == models.CreditStatusApproved {
			if err := repos.Students.AddCredits(ctx, credit.StudentID, credit.CreditsAwarded); err != nil {
				return lookupError(err, "student", credit.StudentID)
			}
			entry.Event = &ActivityEvent{
				Type:     "credits_approved",
				Category: string(tracker.CategoryCredit),
				Data: map[string]interface{}{
					"creditId":  idString(id),
					"studentId": idString(credit.StudentID),
					"amount":    credit.CreditsAwarded,
				},
			}
		}
		if err := s.activity.Record(ctx, repos, entry); err != nil {
			return err
		}

		decided, err = repos.Credits.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return models.Credit{}, err
	}

	s.invalidateStatistics(ctx)
	s.logger.Info().Uint("credit_id", id).Str("status", status).Str("decided_by", actor.UserID).Msg("credit decided")
	return decided, nil
}

func (s *creditService) List(ctx context.Context, req dto.CreditListRequest) ([]dto.CreditResponse, error) {
	filter := repository.CreditFilter{Status: strings.TrimSpace(req.Status)}
	if req.StudentID > 0 {
		filter.StudentID = &req.StudentID
	}
	if req.ClassID > 0 {
		filter.ClassID = &req.ClassID
	}
	if req.TeacherID > 0 {
		filter.TeacherID = &req.TeacherID
	}

	credits, err := s.repos.Credits.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewCreditResponseSlice(credits), nil
}

func (s *creditService) Statistics(ctx context.Context, from, to *time.Time) (dto.CreditStatisticsResponse, error) {
	ctx, span := startSpan(ctx, "credits.statistics")
	defer span.End()

	cacheKey := s.statisticsKey(ctx, from, to)
	span.SetAttributes(attribute.String("credits.cache_key", cacheKey))

	if s.cache != nil && cacheKey != "" {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.CreditStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("credits.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read credit statistics cache")
			span.RecordError(err)
		}
	}

	credits, err := s.repos.Credits.List(ctx, repository.CreditFilter{From: from, To: to})
	if err != nil {
		span.RecordError(err)
		return dto.CreditStatisticsResponse{}, err
	}

	stats := dto.CreditStatisticsResponse{TotalRecords: len(credits)}
	for _, credit := range credits {
		switch credit.Status {
		case models.CreditStatusApproved:
			stats.ApprovedCredits++
			stats.TotalCredits += credit.CreditsAwarded
		case models.CreditStatusPending:
			stats.PendingCredits++
		case models.CreditStatusRejected:
			stats.RejectedCredits++
		}
	}

	if s.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write credit statistics cache")
			}
		}
	}

	return stats, nil
}

// statisticsKey embeds the current invalidation version so any credit
// mutation makes earlier cached aggregates unreachable.
func (s *creditService) statisticsKey(ctx context.Context, from, to *time.Time) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, creditStatsVersionKey).Int64()
	if err != nil && err != redis.Nil {
		s.logger.Warn().Err(err).Msg("failed to read credit statistics version")
		return ""
	}
	return fmt.Sprintf("credits:stats:v%d:%d:%d", version, unixOrZero(from), unixOrZero(to))
}

func (s *creditService) invalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, creditStatsVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate credit statistics cache")
	}
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
