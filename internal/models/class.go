package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClassSchedule is the weekly slot of a class.
type ClassSchedule struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Class is a taught course section.
type Class struct {
	ID              uint                              `gorm:"primaryKey" json:"id"`
	Name            string                            `gorm:"size:255;not null" json:"name"`
	Description     string                            `gorm:"type:text" json:"description,omitempty"`
	TeacherID       uint                              `gorm:"not null;index" json:"teacher_id"`
	Subject         string                            `gorm:"size:128;not null;index" json:"subject"`
	Grade           string                            `gorm:"size:32;not null;index" json:"grade"`
	Room            string                            `gorm:"size:64" json:"room,omitempty"`
	Schedule        datatypes.JSONType[ClassSchedule] `gorm:"type:json" json:"schedule"`
	MaxStudents     int                               `gorm:"not null" json:"max_students"`
	CurrentStudents int                               `gorm:"not null;default:0" json:"current_students"`
	CreditValue     float64                           `gorm:"not null;default:0" json:"credit_value"`
	IsActive        bool                              `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

// IsFull reports whether the class reached its capacity.
func (c Class) IsFull() bool {
	return c.CurrentStudents >= c.MaxStudents
}
