package dto

import (
	"time"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// MessageSendRequest captures an outgoing message.
type MessageSendRequest struct {
	ReceiverID  *uint    `json:"receiver_id"`
	ClassID     *uint    `json:"class_id"`
	Subject     string   `json:"subject" validate:"required,max=255"`
	Content     string   `json:"content" validate:"required,max=10000"`
	Type        string   `json:"type" validate:"required,oneof=direct class_announcement system_notification"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,url"`
}

// MessageResponse serializes a message.
type MessageResponse struct {
	ID          uint       `json:"id"`
	SenderID    uint       `json:"sender_id"`
	ReceiverID  *uint      `json:"receiver_id,omitempty"`
	ClassID     *uint      `json:"class_id,omitempty"`
	Subject     string     `json:"subject"`
	Content     string     `json:"content"`
	Type        string     `json:"type"`
	IsRead      bool       `json:"is_read"`
	Priority    string     `json:"priority"`
	Attachments []string   `json:"attachments"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// UnreadCountResponse reports the number of unread messages.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	attachments := []string(message.Attachments)
	if attachments == nil {
		attachments = []string{}
	}
	return MessageResponse{
		ID:          message.ID,
		SenderID:    message.SenderID,
		ReceiverID:  message.ReceiverID,
		ClassID:     message.ClassID,
		Subject:     message.Subject,
		Content:     message.Content,
		Type:        message.Type,
		IsRead:      message.IsRead,
		Priority:    message.Priority,
		Attachments: attachments,
		CreatedAt:   message.CreatedAt,
		ReadAt:      message.ReadAt,
	}
}

// NewMessageResponseSlice converts a slice of messages.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewMessageResponse(message))
	}
	return responses
}
