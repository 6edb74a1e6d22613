package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// ActorType distinguishes user-attributed entries from system-initiated ones.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Actor identifies who performed a state-changing action.
type Actor struct {
	Type   ActorType
	UserID string
	Role   string
}

// UserActor attributes an action to a user.
func UserActor(id uint, role string) Actor {
	return Actor{Type: ActorTypeUser, UserID: strconv.FormatUint(uint64(id), 10), Role: role}
}

// SystemActor attributes an action to the system itself.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem, Role: string(ActorTypeSystem)}
}

// IsSystem reports whether the actor is the system.
func (a Actor) IsSystem() bool {
	return a.Type == ActorTypeSystem
}

// ID returns the numeric user id, or zero for the system.
func (a Actor) ID() uint {
	if a.IsSystem() {
		return 0
	}
	id, err := strconv.ParseUint(a.UserID, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// UserLog is an accountable audit entry written alongside every state change.
type UserLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorType  ActorType         `gorm:"size:16;not null;default:user" json:"actor_type"`
	UserID     *string           `gorm:"size:64;index:idx_user_logs_user" json:"user_id,omitempty"`
	Action     string            `gorm:"size:64;not null;index:idx_user_logs_action" json:"action"`
	TargetType string            `gorm:"size:32;index:idx_user_logs_target,priority:1" json:"target_type,omitempty"`
	TargetID   string            `gorm:"size:64;index:idx_user_logs_target,priority:2" json:"target_id,omitempty"`
	Details    datatypes.JSONMap `gorm:"type:json" json:"details,omitempty"`
	IPAddress  string            `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent  string            `gorm:"size:512" json:"user_agent,omitempty"`
	Timestamp  int64             `gorm:"not null;index:idx_user_logs_timestamp" json:"timestamp"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TableName keeps the collection name used by the rest of the system.
func (UserLog) TableName() string {
	return "user_logs"
}

// Event is a telemetry record, not necessarily attributable to a user.
type Event struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	EventType     string            `gorm:"size:64;not null;index:idx_events_type" json:"event_type"`
	EventCategory string            `gorm:"size:32;not null;index:idx_events_category" json:"event_category"`
	UserID        *string           `gorm:"size:64;index:idx_events_user" json:"user_id,omitempty"`
	SessionID     string            `gorm:"size:64;index:idx_events_session" json:"session_id,omitempty"`
	Data          datatypes.JSONMap `gorm:"type:json" json:"data,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	Timestamp     int64             `gorm:"not null;index:idx_events_timestamp" json:"timestamp"`
	CreatedAt     time.Time         `json:"created_at"`
}
