package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// CreditFilter narrows credit queries.
type CreditFilter struct {
	StudentID *uint
	ClassID   *uint
	TeacherID *uint
	Status    string
	From      *time.Time
	To        *time.Time
}

// CreditRepository persists credit transactions.
type CreditRepository interface {
	Create(ctx context.Context, credit *models.Credit) error
	GetByID(ctx context.Context, id uint) (models.Credit, error)
	// Decide moves a pending credit to status. It reports false when the credit is no longer pending.
	Decide(ctx context.Context, id uint, status string, decidedBy uint, at time.Time) (bool, error)
	List(ctx context.Context, filter CreditFilter) ([]models.Credit, error)
}

type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository constructs the credit repository.
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) Create(ctx context.Context, credit *models.Credit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *creditRepository) GetByID(ctx context.Context, id uint) (models.Credit, error) {
	var credit models.Credit
	if err := r.db.WithContext(ctx).First(&credit, id).Error; err != nil {
		return models.Credit{}, err
	}
	return credit, nil
}

func (r *creditRepository) Decide(ctx context.Context, id uint, status string, decidedBy uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Credit{}).
		Where("id = ?", id).
		Where("status = ?", models.CreditStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"approved_by": decidedBy,
			"approved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *creditRepository) List(ctx context.Context, filter CreditFilter) ([]models.Credit, error) {
	query := r.db.WithContext(ctx).Model(&models.Credit{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var credits []models.Credit
	if err := query.Order("created_at DESC, id DESC").Find(&credits).Error; err != nil {
		return nil, err
	}
	return credits, nil
}
