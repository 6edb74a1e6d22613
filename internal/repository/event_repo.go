package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// EventFilter narrows telemetry event queries.
type EventFilter struct {
	Page      int
	PageSize  int
	EventType string
	Category  string
	UserID    string
	SessionID string
	Since     int64
	Until     int64
}

// EventRepository persists telemetry events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs the event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Category != "" {
		query = query.Where("event_category = ?", filter.Category)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
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

	var events []models.Event
	if err := paginate(query, filter.Page, filter.PageSize).Order("timestamp DESC, id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
