package tracker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Sink receives every record after it has been buffered by the tracker.
type Sink interface {
	PublishEvent(ctx context.Context, event Event) error
	PublishUserLog(ctx context.Context, log UserLog) error
}

// NATSSink forwards tracker records to NATS subjects.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	source  string
}

type natsEnvelope struct {
	Source string      `json:"source"`
	Record interface{} `json:"record"`
	SentAt time.Time   `json:"sent_at"`
}

// NewNATSSink publishes on "<subject>.events" and "<subject>.user_logs".
// The source is stamped on every envelope so consumers can drop their own echoes.
func NewNATSSink(conn *nats.Conn, subject, source string) *NATSSink {
	subject = strings.Trim(strings.ReplaceAll(strings.TrimSpace(subject), ":", "."), ".")
	if subject == "" {
		subject = "classtracker.tracker"
	}
	return &NATSSink{conn: conn, subject: subject, source: source}
}

func (s *NATSSink) PublishEvent(_ context.Context, event Event) error {
	return s.publish(s.subject+".events", event)
}

func (s *NATSSink) PublishUserLog(_ context.Context, log UserLog) error {
	return s.publish(s.subject+".user_logs", log)
}

func (s *NATSSink) publish(subject string, record interface{}) error {
	payload, err := json.Marshal(natsEnvelope{
		Source: s.source,
		Record: record,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.conn.Publish(subject, payload)
}
