package models

import "time"

// Student is a learner identified by a school-assigned student number.
type Student struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	StudentNumber string       `gorm:"column:student_id;size:64;uniqueIndex;not null" json:"student_id"`
	FirstName     string       `gorm:"size:128;not null;index:idx_students_name,priority:2" json:"first_name"`
	LastName      string       `gorm:"size:128;not null;index:idx_students_name,priority:1" json:"last_name"`
	Email         string       `gorm:"size:255" json:"email,omitempty"`
	Grade         string       `gorm:"size:32;not null;index" json:"grade"`
	ParentContact string       `gorm:"size:255" json:"parent_contact,omitempty"`
	TotalCredits  float64      `gorm:"not null;default:0" json:"total_credits"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	Enrollments   []Enrollment `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// EnrolledClassIDs lists the classes the student is enrolled in, in enrollment order.
func (s Student) EnrolledClassIDs() []uint {
	ids := make([]uint, 0, len(s.Enrollments))
	for _, enrollment := range s.Enrollments {
		ids = append(ids, enrollment.ClassID)
	}
	return ids
}

// Enrollment links a student to a class. A student is enrolled in a class at most once.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair,priority:1" json:"student_id"`
	ClassID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair,priority:2;index" json:"class_id"`
	EnrolledBy uint      `gorm:"not null" json:"enrolled_by"`
	CreatedAt  time.Time `json:"created_at"`
}
