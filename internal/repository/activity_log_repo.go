package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// ActivityLogFilter narrows audit log queries.
type ActivityLogFilter struct {
	Page       int
	PageSize   int
	UserID     string
	ActorType  string
	Action     string
	TargetType string
	TargetID   string
	Since      int64
	Until      int64
}

// ActivityLogRepository persists the user_logs audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.UserLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.UserLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.UserLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.UserLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserLog{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ActorType != "" {
		query = query.Where("actor_type = ?", filter.ActorType)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.Since > 0 {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if filter.Until > 0 {
		query = query.Where("timestamp <= ?", filter.Until)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.UserLog
	if err := paginate(query, filter.Page, filter.PageSize).Order("timestamp DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
