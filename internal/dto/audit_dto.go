package dto

import "github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"

// UserLogListRequest filters the audit trail.
type UserLogListRequest struct {
	Page       int
	PageSize   int
	UserID     string
	ActorType  string
	Action     string
	TargetType string
	TargetID   string
	Since      int64
	Until      int64
}

// EventListRequest filters telemetry events.
type EventListRequest struct {
	Page      int
	PageSize  int
	EventType string
	Category  string
	UserID    string
	SessionID string
	Since     int64
	Until     int64
}

// UserLogResponse serializes an audit entry.
type UserLogResponse struct {
	ID         uint                   `json:"id"`
	ActorType  string                 `json:"actor_type"`
	UserID     *string                `json:"user_id,omitempty"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   string                 `json:"target_id,omitempty"`
	Details    map[string]interface{} `json:"details"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// EventResponse serializes a telemetry event.
type EventResponse struct {
	ID            uint                   `json:"id"`
	EventType     string                 `json:"event_type"`
	EventCategory string                 `json:"event_category"`
	UserID        *string                `json:"user_id,omitempty"`
	SessionID     string                 `json:"session_id,omitempty"`
	Data          map[string]interface{} `json:"data"`
	Metadata      map[string]interface{} `json:"metadata"`
	Timestamp     int64                  `json:"timestamp"`
}

// UserLogListResponse wraps paginated audit entries.
type UserLogListResponse struct {
	Items      []UserLogResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// EventListResponse wraps paginated events.
type EventListResponse struct {
	Items      []EventResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewUserLogResponse converts an audit entry into a DTO.
func NewUserLogResponse(entry models.UserLog) UserLogResponse {
	return UserLogResponse{
		ID:         entry.ID,
		ActorType:  string(entry.ActorType),
		UserID:     entry.UserID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    metadataFromJSON(entry.Details),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		Timestamp:  entry.Timestamp,
	}
}

// NewEventResponse converts an event into a DTO.
func NewEventResponse(event models.Event) EventResponse {
	return EventResponse{
		ID:            event.ID,
		EventType:     event.EventType,
		EventCategory: event.EventCategory,
		UserID:        event.UserID,
		SessionID:     event.SessionID,
		Data:          metadataFromJSON(event.Data),
		Metadata:      metadataFromJSON(event.Metadata),
		Timestamp:     event.Timestamp,
	}
}
