// Package tracker records client activity telemetry and the user action audit trail
// for one running session, mirroring both streams into a capped persistent store.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/observability"
)

const serverContext = "server"

// ClientInfo describes where the tracker runs. Outside an interactive client
// every field falls back to a server placeholder.
type ClientInfo struct {
	Browser   string
	Device    string
	IPAddress string
	UserAgent string
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithStore sets the persistence surface. Without one, persistence is skipped.
func WithStore(store Store) Option {
	return func(t *Tracker) { t.store = store }
}

// WithCapacity sets how many records each persisted stream keeps.
func WithCapacity(capacity int) Option {
	return func(t *Tracker) {
		if capacity > 0 {
			t.capacity = capacity
		}
	}
}

// WithSinks adds receivers that get every record after it is buffered.
func WithSinks(sinks ...Sink) Option {
	return func(t *Tracker) {
		for _, sink := range sinks {
			if sink != nil {
				t.sinks = append(t.sinks, sink)
			}
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithClient describes the client the tracker runs in.
func WithClient(info ClientInfo) Option {
	return func(t *Tracker) { t.client = info }
}

// Tracker is the single authority for activity telemetry and audit entries of a session.
// It is built once at start-up and passed to whoever needs to record activity.
type Tracker struct {
	mu        sync.Mutex
	sessionID string
	userID    string
	events    []Event
	userLogs  []UserLog

	store    Store
	capacity int
	// streamPrefix namespaces the persisted streams when several trackers share a store.
	streamPrefix string
	scoped       bool
	sinks    []Sink
	client   ClientInfo
	now      func() time.Time
	logger   zerolog.Logger
}

// New builds a tracker with a fresh session and records the page_load event.
func New(ctx context.Context, opts ...Option) *Tracker {
	t := &Tracker{
		capacity: DefaultCapacity,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.client = normalizeClient(t.client)
	t.sessionID = newSessionID(t.now())
	if t.scoped {
		t.streamPrefix = t.sessionID + ":"
	}
	t.logger = t.logger.With().Str("component", "tracker").Str("session_id", t.sessionID).Logger()

	t.TrackEvent(ctx, Event{
		EventType:     "page_load",
		EventCategory: CategorySystem,
		Metadata: &EventMetadata{
			Browser: t.client.Browser,
			Device:  t.client.Device,
		},
	})

	return t
}

func newSessionID(now time.Time) string {
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func normalizeClient(info ClientInfo) ClientInfo {
	if strings.TrimSpace(info.Browser) == "" {
		info.Browser = serverContext
	}
	if strings.TrimSpace(info.Device) == "" {
		info.Device = serverContext
	}
	if strings.TrimSpace(info.IPAddress) == "" {
		info.IPAddress = "localhost"
	}
	if strings.TrimSpace(info.UserAgent) == "" {
		info.UserAgent = info.Browser
	}
	return info
}

// SessionID returns the identifier shared by every event of this tracker.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// UserID returns the current user identity, if any.
func (t *Tracker) UserID() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.userID, t.userID != ""
}

// SetUserID sets the current user and records a user_identified event.
func (t *Tracker) SetUserID(ctx context.Context, userID string) {
	t.mu.Lock()
	t.userID = userID
	t.mu.Unlock()

	t.TrackEvent(ctx, Event{
		EventType:     "user_identified",
		EventCategory: CategoryAuth,
		UserID:        userID,
	})
}

// TrackEvent fills in the user and session defaults, buffers the event and persists it.
// Payloads are stored as given.
func (t *Tracker) TrackEvent(ctx context.Context, event Event) {
	t.mu.Lock()
	if event.UserID == "" {
		event.UserID = t.userID
	}
	if event.SessionID == "" {
		event.SessionID = t.sessionID
	}
	if event.Timestamp == 0 {
		event.Timestamp = t.now().UnixMilli()
	}
	event = event.clone()
	t.events = append(t.events, event)
	t.mu.Unlock()

	observability.TrackerEvents().WithLabelValues(string(event.EventCategory)).Inc()
	t.logger.Debug().
		Str("event_type", event.EventType).
		Str("event_category", string(event.EventCategory)).
		Str("user_id", event.UserID).
		Msg("event tracked")

	t.persist(ctx, EventsKey, event)
	for _, sink := range t.sinks {
		if err := sink.PublishEvent(ctx, event); err != nil {
			t.logger.Warn().Err(err).Str("event_type", event.EventType).Msg("failed to publish event to sink")
		}
	}
}

// LogUserAction buffers and persists an audit entry. The caller supplies the user id.
func (t *Tracker) LogUserAction(ctx context.Context, entry UserLog) {
	if entry.IPAddress == "" {
		entry.IPAddress = t.client.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = t.client.UserAgent
	}
	entry = entry.clone()

	t.mu.Lock()
	if entry.Timestamp == 0 {
		entry.Timestamp = t.now().UnixMilli()
	}
	t.userLogs = append(t.userLogs, entry)
	t.mu.Unlock()

	observability.TrackerUserLogs().WithLabelValues(entry.Action).Inc()
	t.logger.Debug().
		Str("action", entry.Action).
		Str("user_id", entry.UserID).
		Str("target_type", string(entry.TargetType)).
		Str("target_id", entry.TargetID).
		Msg("user action logged")

	t.persist(ctx, UserLogsKey, entry)
	for _, sink := range t.sinks {
		if err := sink.PublishUserLog(ctx, entry); err != nil {
			t.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to publish user log to sink")
		}
	}
}

// TrackLogin identifies the user and records a user_login event.
func (t *Tracker) TrackLogin(ctx context.Context, userID string) {
	t.SetUserID(ctx, userID)
	t.TrackEvent(ctx, Event{
		EventType:     "user_login",
		EventCategory: CategoryAuth,
		UserID:        userID,
	})
}

// TrackLogout records a user_logout event for the current user, then forgets the user.
// The session is kept.
func (t *Tracker) TrackLogout(ctx context.Context) {
	current, _ := t.UserID()
	t.TrackEvent(ctx, Event{
		EventType:     "user_logout",
		EventCategory: CategoryAuth,
		UserID:        current,
	})

	t.mu.Lock()
	t.userID = ""
	t.mu.Unlock()
}

// TrackPageView records a page_view event for path.
func (t *Tracker) TrackPageView(ctx context.Context, path string) {
	t.TrackEvent(ctx, Event{
		EventType:     "page_view",
		EventCategory: CategorySystem,
		Data:          Payload{"path": path},
	})
}

// TrackClassCreated records the class_created event and audit entry.
func (t *Tracker) TrackClassCreated(ctx context.Context, classID string, class ClassSummary) error {
	userID, err := t.requireUser("TrackClassCreated")
	if err != nil {
		return err
	}

	data := class.payload()
	data["classId"] = classID
	t.TrackEvent(ctx, Event{
		EventType:     "class_created",
		EventCategory: CategoryClass,
		UserID:        userID,
		Data:          data,
	})
	t.LogUserAction(ctx, UserLog{
		UserID:     userID,
		Action:     "class_created",
		TargetType: TargetClass,
		TargetID:   classID,
		Details:    &LogDetails{After: class},
	})
	return nil
}

// TrackStudentEnrolled records the student_enrolled event and audit entry.
func (t *Tracker) TrackStudentEnrolled(ctx context.Context, studentID, classID string) error {
	userID, err := t.requireUser("TrackStudentEnrolled")
	if err != nil {
		return err
	}

	t.TrackEvent(ctx, Event{
		EventType:     "student_enrolled",
		EventCategory: CategoryStudent,
		UserID:        userID,
		Data:          Payload{"studentId": studentID, "classId": classID},
	})
	t.LogUserAction(ctx, UserLog{
		UserID:     userID,
		Action:     "student_enrolled",
		TargetType: TargetStudent,
		TargetID:   studentID,
		Details:    &LogDetails{Metadata: Payload{"classId": classID}},
	})
	return nil
}

// TrackCreditAwarded records the credit_awarded event and audit entry.
func (t *Tracker) TrackCreditAwarded(ctx context.Context, creditID, studentID string, amount float64) error {
	userID, err := t.requireUser("TrackCreditAwarded")
	if err != nil {
		return err
	}

	t.TrackEvent(ctx, Event{
		EventType:     "credit_awarded",
		EventCategory: CategoryCredit,
		UserID:        userID,
		Data:          Payload{"creditId": creditID, "studentId": studentID, "amount": amount},
	})
	t.LogUserAction(ctx, UserLog{
		UserID:     userID,
		Action:     "credit_awarded",
		TargetType: TargetCredit,
		TargetID:   creditID,
		Details:    &LogDetails{Metadata: Payload{"studentId": studentID, "amount": amount}},
	})
	return nil
}

// TrackMessageSent records the message_sent event and audit entry.
func (t *Tracker) TrackMessageSent(ctx context.Context, messageID, receiverID, messageType string) error {
	userID, err := t.requireUser("TrackMessageSent")
	if err != nil {
		return err
	}

	t.TrackEvent(ctx, Event{
		EventType:     "message_sent",
		EventCategory: CategoryMessage,
		UserID:        userID,
		Data:          Payload{"messageId": messageID, "receiverId": receiverID, "type": messageType},
	})
	t.LogUserAction(ctx, UserLog{
		UserID:     userID,
		Action:     "message_sent",
		TargetType: TargetMessage,
		TargetID:   messageID,
		Details:    &LogDetails{Metadata: Payload{"receiverId": receiverID, "type": messageType}},
	})
	return nil
}

// Events returns a deep copy of the in-memory event log.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := make([]Event, len(t.events))
	for i, event := range t.events {
		events[i] = event.clone()
	}
	return events
}

// UserLogs returns a deep copy of the in-memory audit log.
func (t *Tracker) UserLogs() []UserLog {
	t.mu.Lock()
	defer t.mu.Unlock()

	logs := make([]UserLog, len(t.userLogs))
	for i, entry := range t.userLogs {
		logs[i] = entry.clone()
	}
	return logs
}

// EventCount returns the number of buffered events.
func (t *Tracker) EventCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.events)
}

// UserLogCount returns the number of buffered audit entries.
func (t *Tracker) UserLogCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.userLogs)
}

// StoredEvents returns the persisted events, oldest first.
func (t *Tracker) StoredEvents(ctx context.Context) []Event {
	return loadStored[Event](ctx, t, EventsKey)
}

// StoredUserLogs returns the persisted audit entries, oldest first.
func (t *Tracker) StoredUserLogs(ctx context.Context) []UserLog {
	return loadStored[UserLog](ctx, t, UserLogsKey)
}

// ClearStoredData empties both persisted streams and both in-memory logs.
func (t *Tracker) ClearStoredData(ctx context.Context) {
	if t.store != nil {
		if err := t.store.Remove(ctx, t.streamKey(EventsKey), t.streamKey(UserLogsKey)); err != nil {
			t.logger.Warn().Err(err).Msg("failed to clear stored tracker data")
		}
	}

	t.mu.Lock()
	t.events = nil
	t.userLogs = nil
	t.mu.Unlock()
}

func (t *Tracker) requireUser(op string) (string, error) {
	userID, ok := t.UserID()
	if !ok {
		return "", &PreconditionError{Op: op, Err: ErrNoCurrentUser}
	}
	return userID, nil
}

func (t *Tracker) streamKey(key string) string {
	return t.streamPrefix + key
}

func (t *Tracker) persist(ctx context.Context, key string, record interface{}) {
	if t.store == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err == nil {
		err = t.store.Append(ctx, t.streamKey(key), payload, t.capacity)
	}
	if err != nil {
		observability.TrackerPersistErrors().WithLabelValues(key).Inc()
		t.logger.Warn().Err(err).Str("stream", key).Msg("failed to persist tracker record")
	}
}

func loadStored[T any](ctx context.Context, t *Tracker, key string) []T {
	if t.store == nil {
		return []T{}
	}

	raw, err := t.store.Load(ctx, t.streamKey(key))
	if err != nil {
		t.logger.Warn().Err(err).Str("stream", key).Msg("failed to load stored tracker records")
		return []T{}
	}

	records := make([]T, 0, len(raw))
	for _, item := range raw {
		var record T
		if err := json.Unmarshal(item, &record); err != nil {
			t.logger.Warn().Err(err).Str("stream", key).Msg("skipping undecodable tracker record")
			continue
		}
		records = append(records, record)
	}
	return records
}
