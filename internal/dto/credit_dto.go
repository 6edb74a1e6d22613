package dto

import (
	"time"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// CreditAwardRequest captures a teacher awarding credits.
type CreditAwardRequest struct {
	StudentID      uint    `json:"student_id" validate:"required"`
	ClassID        uint    `json:"class_id" validate:"required"`
	CreditsAwarded float64 `json:"credits_awarded" validate:"gt=0"`
	Reason         string  `json:"reason" validate:"required,max=255"`
	Description    string  `json:"description" validate:"omitempty,max=2000"`
	Type           string  `json:"type" validate:"required,oneof=completion achievement adjustment"`
}

// CreditListRequest filters credit listings.
type CreditListRequest struct {
	StudentID uint
	ClassID   uint
	TeacherID uint
	Status    string
}

// CreditResponse serializes a credit transaction.
type CreditResponse struct {
	ID             uint       `json:"id"`
	StudentID      uint       `json:"student_id"`
	ClassID        uint       `json:"class_id"`
	TeacherID      uint       `json:"teacher_id"`
	CreditsAwarded float64    `json:"credits_awarded"`
	Reason         string     `json:"reason"`
	Description    string     `json:"description,omitempty"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	ApprovedBy     *uint      `json:"approved_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
}

// CreditStatisticsResponse aggregates credits created within a period.
// TotalCredits sums approved credits only; the other figures are record counts.
type CreditStatisticsResponse struct {
	TotalCredits    float64 `json:"total_credits"`
	PendingCredits  int     `json:"pending_credits"`
	ApprovedCredits int     `json:"approved_credits"`
	RejectedCredits int     `json:"rejected_credits"`
	TotalRecords    int     `json:"total_records"`
	CacheHit        bool    `json:"cache_hit"`
}

// NewCreditResponse converts a credit model into a DTO.
func NewCreditResponse(credit models.Credit) CreditResponse {
	return CreditResponse{
		ID:             credit.ID,
		StudentID:      credit.StudentID,
		ClassID:        credit.ClassID,
		TeacherID:      credit.TeacherID,
		CreditsAwarded: credit.CreditsAwarded,
		Reason:         credit.Reason,
		Description:    credit.Description,
		Type:           credit.Type,
		Status:         credit.Status,
		ApprovedBy:     credit.ApprovedBy,
		CreatedAt:      credit.CreatedAt,
		ApprovedAt:     credit.ApprovedAt,
	}
}

// NewCreditResponseSlice converts a slice of credits.
func NewCreditResponseSlice(credits []models.Credit) []CreditResponse {
	responses := make([]CreditResponse, 0, len(credits))
	for _, credit := range credits {
		responses = append(responses, NewCreditResponse(credit))
	}
	return responses
}
