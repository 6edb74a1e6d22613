package tracker

import "time"

// Category groups events by the part of the application that produced them.
type Category string

const (
	CategoryAuth    Category = "auth"
	CategoryClass   Category = "class"
	CategoryStudent Category = "student"
	CategoryMessage Category = "message"
	CategoryCredit  Category = "credit"
	CategorySystem  Category = "system"
)

// TargetType names the kind of entity an audit entry refers to.
type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetClass   TargetType = "class"
	TargetStudent TargetType = "student"
	TargetMessage TargetType = "message"
	TargetCredit  TargetType = "credit"
)

// Payload is an opaque JSON object attached to events and audit details.
type Payload map[string]interface{}

// EventMetadata describes the client context an event was produced in.
type EventMetadata struct {
	Browser  string `json:"browser,omitempty"`
	Device   string `json:"device,omitempty"`
	Location string `json:"location,omitempty"`
	Duration *int64 `json:"duration,omitempty"`
}

// Event is a telemetry record. Events are positional: there is no unique key.
type Event struct {
	EventType     string         `json:"eventType"`
	EventCategory Category       `json:"eventCategory"`
	UserID        string         `json:"userId,omitempty"`
	SessionID     string         `json:"sessionId"`
	Data          Payload        `json:"data,omitempty"`
	Metadata      *EventMetadata `json:"metadata,omitempty"`
	Timestamp     int64          `json:"timestamp"`
}

// LogDetails carries before/after snapshots of the audited target.
type LogDetails struct {
	Before   interface{} `json:"before,omitempty"`
	After    interface{} `json:"after,omitempty"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// UserLog is an audit record attributed to a user.
type UserLog struct {
	UserID     string      `json:"userId"`
	Action     string      `json:"action"`
	TargetType TargetType  `json:"targetType,omitempty"`
	TargetID   string      `json:"targetId,omitempty"`
	Details    *LogDetails `json:"details,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

// Time converts the millisecond timestamp into a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Time converts the millisecond timestamp into a time.Time.
func (l UserLog) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// ClassSummary is the class snapshot recorded when a class is created.
type ClassSummary struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

func (c ClassSummary) payload() Payload {
	return Payload{
		"name":    c.Name,
		"subject": c.Subject,
		"grade":   c.Grade,
	}
}

// clone returns a copy of e that shares no maps or pointers with it.
func (e Event) clone() Event {
	e.Data = clonePayload(e.Data)
	if e.Metadata != nil {
		metadata := *e.Metadata
		if metadata.Duration != nil {
			duration := *metadata.Duration
			metadata.Duration = &duration
		}
		e.Metadata = &metadata
	}
	return e
}

// clone returns a copy of l whose details share no maps with it.
func (l UserLog) clone() UserLog {
	if l.Details != nil {
		l.Details = &LogDetails{
			Before:   cloneValue(l.Details.Before),
			After:    cloneValue(l.Details.After),
			Metadata: cloneValue(l.Details.Metadata),
		}
	}
	return l
}

func clonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for key, value := range p {
		out[key] = cloneValue(value)
	}
	return out
}

// cloneValue copies JSON-shaped containers. Other values are returned as is.
func cloneValue(v interface{}) interface{} {
	switch value := v.(type) {
	case Payload:
		return clonePayload(value)
	case map[string]interface{}:
		return map[string]interface{}(clonePayload(value))
	case map[string]string:
		out := make(map[string]string, len(value))
		for key, item := range value {
			out[key] = item
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
