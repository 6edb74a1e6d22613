package dto

import (
	"time"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// ClassScheduleRequest describes the weekly slot of a class.
type ClassScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// ClassCreateRequest captures the payload for creating a class.
type ClassCreateRequest struct {
	Name        string               `json:"name" validate:"required,min=1,max=255"`
	Description string               `json:"description" validate:"omitempty,max=2000"`
	TeacherID   uint                 `json:"teacher_id" validate:"required"`
	Subject     string               `json:"subject" validate:"required,max=128"`
	Grade       string               `json:"grade" validate:"required,max=32"`
	Room        string               `json:"room" validate:"omitempty,max=64"`
	Schedule    ClassScheduleRequest `json:"schedule" validate:"required"`
	MaxStudents int                  `json:"max_students" validate:"required,gt=0"`
	CreditValue float64              `json:"credit_value" validate:"gte=0"`
}

// ClassUpdateRequest captures partial class updates.
type ClassUpdateRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Subject     *string               `json:"subject" validate:"omitempty,min=1,max=128"`
	Grade       *string               `json:"grade" validate:"omitempty,min=1,max=32"`
	Room        *string               `json:"room" validate:"omitempty,max=64"`
	Schedule    *ClassScheduleRequest `json:"schedule" validate:"omitempty"`
	MaxStudents *int                  `json:"max_students" validate:"omitempty,gt=0"`
	CreditValue *float64              `json:"credit_value" validate:"omitempty,gte=0"`
}

// ClassListRequest filters class listings.
type ClassListRequest struct {
	TeacherID uint
	Subject   string
	Grade     string
}

// ClassResponse serializes a class.
type ClassResponse struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	TeacherID       uint                 `json:"teacher_id"`
	Subject         string               `json:"subject"`
	Grade           string               `json:"grade"`
	Room            string               `json:"room,omitempty"`
	Schedule        models.ClassSchedule `json:"schedule"`
	MaxStudents     int                  `json:"max_students"`
	CurrentStudents int                  `json:"current_students"`
	CreditValue     float64              `json:"credit_value"`
	IsActive        bool                 `json:"is_active"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewClassResponse converts a class model into a DTO.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:              class.ID,
		Name:            class.Name,
		Description:     class.Description,
		TeacherID:       class.TeacherID,
		Subject:         class.Subject,
		Grade:           class.Grade,
		Room:            class.Room,
		Schedule:        class.Schedule.Data(),
		MaxStudents:     class.MaxStudents,
		CurrentStudents: class.CurrentStudents,
		CreditValue:     class.CreditValue,
		IsActive:        class.IsActive,
		CreatedAt:       class.CreatedAt,
		UpdatedAt:       class.UpdatedAt,
	}
}

// NewClassResponseSlice converts a slice of classes.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}
	return responses
}
