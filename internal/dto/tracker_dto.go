package dto

// TrackerIdentifyRequest binds the tracker to a user. Login uses the same payload.
type TrackerIdentifyRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
}

// TrackerPageViewRequest records a page view.
type TrackerPageViewRequest struct {
	Page string `json:"page" validate:"required,max=512"`
}

// TrackerEventRequest records an arbitrary event.
type TrackerEventRequest struct {
	EventType     string                 `json:"eventType" validate:"required,max=64"`
	EventCategory string                 `json:"eventCategory" validate:"required,oneof=auth class student message credit system"`
	UserID        string                 `json:"userId" validate:"omitempty,max=64"`
	SessionID     string                 `json:"sessionId" validate:"omitempty,max=64"`
	Data          map[string]interface{} `json:"data"`
	Duration      *int64                 `json:"duration" validate:"omitempty,gte=0"`
}

// TrackerUserLogRequest records an arbitrary audit entry.
type TrackerUserLogRequest struct {
	UserID     string                 `json:"userId" validate:"required,max=64"`
	Action     string                 `json:"action" validate:"required,max=64"`
	TargetType string                 `json:"targetType" validate:"omitempty,oneof=class student message credit user"`
	TargetID   string                 `json:"targetId" validate:"omitempty,max=64"`
	Before     interface{}            `json:"before"`
	After      interface{}            `json:"after"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// TrackerClassCreatedRequest records class creation by the current user.
type TrackerClassCreatedRequest struct {
	ClassID string `json:"classId" validate:"required,max=64"`
	Name    string `json:"name" validate:"required,max=255"`
	Subject string `json:"subject" validate:"required,max=128"`
	Grade   string `json:"grade" validate:"required,max=32"`
}

// TrackerEnrollmentRequest records an enrollment by the current user.
type TrackerEnrollmentRequest struct {
	StudentID string `json:"studentId" validate:"required,max=64"`
	ClassID   string `json:"classId" validate:"required,max=64"`
}

// TrackerCreditRequest records a credit award by the current user.
type TrackerCreditRequest struct {
	CreditID  string  `json:"creditId" validate:"required,max=64"`
	StudentID string  `json:"studentId" validate:"required,max=64"`
	Amount    float64 `json:"amount"`
}

// TrackerMessageRequest records a sent message by the current user.
type TrackerMessageRequest struct {
	MessageID   string `json:"messageId" validate:"required,max=64"`
	ReceiverID  string `json:"receiverId" validate:"required,max=64"`
	MessageType string `json:"messageType" validate:"required,max=32"`
}

// TrackerSessionResponse describes the tracker's identity.
type TrackerSessionResponse struct {
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId,omitempty"`
	EventCount   int    `json:"eventCount"`
	UserLogCount int    `json:"userLogCount"`
	Identified   bool   `json:"identified"`
}
