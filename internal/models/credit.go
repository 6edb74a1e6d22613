package models

import "time"

// Credit types.
const (
	CreditTypeEnrollment  = "enrollment"
	CreditTypeCompletion  = "completion"
	CreditTypeAchievement = "achievement"
	CreditTypeAdjustment  = "adjustment"
)

// Credit statuses.
const (
	CreditStatusPending  = "pending"
	CreditStatusApproved = "approved"
	CreditStatusRejected = "rejected"
)

// Credit is one credit transaction for a student in a class.
type Credit struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StudentID      uint       `gorm:"not null;index" json:"student_id"`
	ClassID        uint       `gorm:"not null;index" json:"class_id"`
	TeacherID      uint       `gorm:"not null;index" json:"teacher_id"`
	CreditsAwarded float64    `gorm:"not null" json:"credits_awarded"`
	Reason         string     `gorm:"size:255;not null" json:"reason"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Type           string     `gorm:"size:32;not null" json:"type"`
	Status         string     `gorm:"size:16;not null;index" json:"status"`
	ApprovedBy     *uint      `json:"approved_by,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
}

// IsPending reports whether the credit still awaits a decision.
func (c Credit) IsPending() bool {
	return c.Status == CreditStatusPending
}
