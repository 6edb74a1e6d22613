package dto

import (
	"time"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// UserCreateRequest captures the payload for creating a staff account.
type UserCreateRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Role         string `json:"role" validate:"required,oneof=admin moderator teacher"`
	PasswordHash string `json:"password_hash" validate:"required,min=8"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=32"`
	Department   string `json:"department" validate:"omitempty,max=128"`
}

// UserUpdateRequest captures partial profile updates.
type UserUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=32"`
	Department   *string `json:"department" validate:"omitempty,max=128"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

// UserResponse serializes a staff account without its credentials.
type UserResponse struct {
	ID           uint       `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ProfileImage string     `json:"profile_image,omitempty"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Department   string     `json:"department,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		IsActive:     user.IsActive,
		LastLogin:    user.LastLogin,
		ProfileImage: user.ProfileImage,
		PhoneNumber:  user.PhoneNumber,
		Department:   user.Department,
		CreatedAt:    user.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of users.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}
