package dto

import (
	"time"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// StudentCreateRequest captures the payload for registering a student.
type StudentCreateRequest struct {
	StudentID     string `json:"student_id" validate:"required,max=64"`
	FirstName     string `json:"first_name" validate:"required,max=128"`
	LastName      string `json:"last_name" validate:"required,max=128"`
	Email         string `json:"email" validate:"omitempty,email"`
	Grade         string `json:"grade" validate:"required,max=32"`
	ParentContact string `json:"parent_contact" validate:"omitempty,max=255"`
}

// StudentUpdateRequest captures partial student updates.
type StudentUpdateRequest struct {
	FirstName     *string `json:"first_name" validate:"omitempty,min=1,max=128"`
	LastName      *string `json:"last_name" validate:"omitempty,min=1,max=128"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Grade         *string `json:"grade" validate:"omitempty,min=1,max=32"`
	ParentContact *string `json:"parent_contact" validate:"omitempty,max=255"`
}

// EnrollmentRequest enrolls a student into a class.
type EnrollmentRequest struct {
	ClassID uint `json:"class_id" validate:"required"`
}

// StudentListRequest filters student listings.
type StudentListRequest struct {
	Grade     string
	FirstName string
	LastName  string
}

// StudentResponse serializes a student.
type StudentResponse struct {
	ID              uint      `json:"id"`
	StudentID       string    `json:"student_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email,omitempty"`
	Grade           string    `json:"grade"`
	ParentContact   string    `json:"parent_contact,omitempty"`
	EnrolledClasses []uint    `json:"enrolled_classes"`
	TotalCredits    float64   `json:"total_credits"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:              student.ID,
		StudentID:       student.StudentNumber,
		FirstName:       student.FirstName,
		LastName:        student.LastName,
		Email:           student.Email,
		Grade:           student.Grade,
		ParentContact:   student.ParentContact,
		EnrolledClasses: student.EnrolledClassIDs(),
		TotalCredits:    student.TotalCredits,
		IsActive:        student.IsActive,
		CreatedAt:       student.CreatedAt,
		UpdatedAt:       student.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a slice of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
