package models

import "time"

// Roles a staff account can hold.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleTeacher   = "teacher"
)

// User is a staff account.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Role         string     `gorm:"size:16;not null;index" json:"role"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ProfileImage string     `gorm:"size:512" json:"profile_image,omitempty"`
	PhoneNumber  string     `gorm:"size:32" json:"phone_number,omitempty"`
	Department   string     `gorm:"size:128" json:"department,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
