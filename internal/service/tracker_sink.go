package service

import (
	"context"

	"gorm.io/datatypes"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

// DurableSink copies tracker records into the events and user_logs tables.
type DurableSink struct {
	repos repository.Repositories
}

// NewDurableSink constructs a tracker sink backed by the durable store.
func NewDurableSink(repos repository.Repositories) *DurableSink {
	return &DurableSink{repos: repos}
}

var _ tracker.Sink = (*DurableSink)(nil)

func (s *DurableSink) PublishEvent(ctx context.Context, event tracker.Event) error {
	metadata := datatypes.JSONMap{"sessionSource": "tracker"}
	if event.Metadata != nil {
		metadata["browser"] = event.Metadata.Browser
		metadata["device"] = event.Metadata.Device
		if event.Metadata.Location != "" {
			metadata["location"] = event.Metadata.Location
		}
		if event.Metadata.Duration != nil {
			metadata["duration"] = *event.Metadata.Duration
		}
	}

	return s.repos.Events.Create(ctx, &models.Event{
		EventType:     event.EventType,
		EventCategory: string(event.EventCategory),
		UserID:        optionalString(event.UserID),
		SessionID:     event.SessionID,
		Data:          datatypes.JSONMap(event.Data),
		Metadata:      metadata,
		Timestamp:     event.Timestamp,
	})
}

func (s *DurableSink) PublishUserLog(ctx context.Context, log tracker.UserLog) error {
	details := datatypes.JSONMap{}
	if log.Details != nil {
		if log.Details.Before != nil {
			details["before"] = log.Details.Before
		}
		if log.Details.After != nil {
			details["after"] = log.Details.After
		}
		if log.Details.Metadata != nil {
			details["metadata"] = log.Details.Metadata
		}
	}

	actorType := models.ActorTypeUser
	if log.UserID == "" {
		actorType = models.ActorTypeSystem
	}

	return s.repos.UserLogs.Create(ctx, &models.UserLog{
		ActorType:  actorType,
		UserID:     optionalString(log.UserID),
		Action:     log.Action,
		TargetType: string(log.TargetType),
		TargetID:   log.TargetID,
		Details:    details,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		Timestamp:  log.Timestamp,
	})
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
