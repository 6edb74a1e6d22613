package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// ClassFilter narrows class listings. Only active classes are returned.
type ClassFilter struct {
	TeacherID *uint
	Subject   string
	Grade     string
}

// ClassRepository persists classes.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (models.Class, error)
	List(ctx context.Context, filter ClassFilter) ([]models.Class, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Class, error)
	// IncrementStudents takes one seat. It reports false when the class is already full.
	IncrementStudents(ctx context.Context, id uint) (bool, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs the class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) List(ctx context.Context, filter ClassFilter) ([]models.Class, error) {
	query := r.db.WithContext(ctx).Model(&models.Class{}).Where("is_active = ?", true)

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Grade != "" {
		query = query.Where("grade = ?", filter.Grade)
	}

	var classes []models.Class
	if err := query.Order("created_at ASC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Class, error) {
	result := r.db.WithContext(ctx).Model(&models.Class{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Class{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *classRepository) IncrementStudents(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Class{}).
		Where("id = ?", id).
		Where("current_students < max_students").
		Updates(map[string]interface{}{
			"current_students": gorm.Expr("current_students + ?", 1),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
