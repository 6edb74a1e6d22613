package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message types.
const (
	MessageTypeDirect             = "direct"
	MessageTypeClassAnnouncement  = "class_announcement"
	MessageTypeSystemNotification = "system_notification"
)

// Message priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Message is a direct message, class announcement or system notification.
// A nil ReceiverID means a broadcast.
type Message struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	SenderID    uint                        `gorm:"not null;index" json:"sender_id"`
	ReceiverID  *uint                       `gorm:"index" json:"receiver_id,omitempty"`
	ClassID     *uint                       `gorm:"index" json:"class_id,omitempty"`
	Subject     string                      `gorm:"size:255;not null" json:"subject"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	Type        string                      `gorm:"size:32;not null" json:"type"`
	IsRead      bool                        `gorm:"not null;default:false" json:"is_read"`
	Priority    string                      `gorm:"size:16;not null" json:"priority"`
	Attachments datatypes.JSONSlice[string] `gorm:"type:json" json:"attachments,omitempty"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
	ReadAt      *time.Time                  `json:"read_at,omitempty"`
}
