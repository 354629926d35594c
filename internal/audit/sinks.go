package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publisher is the slice of the MQTT client used by MQTTSink.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes events as JSON to a broker topic.
type MQTTSink struct {
	pub   Publisher
	topic string
	qos   byte
}

// NewMQTTSink returns a sink publishing to topic at qos. Events are never
// retained.
func NewMQTTSink(pub Publisher, topic string, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, topic: topic, qos: qos}
}

// mqttEvent is the wire shape of a published event.
type mqttEvent struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Outcome   string         `json:"outcome"`
	Source    string         `json:"source"`
	Actor     string         `json:"actor,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Write publishes ev.
func (s *MQTTSink) Write(_ context.Context, ev *Event) error {
	payload, err := json.Marshal(mqttEvent{
		ID:        ev.ID,
		Action:    ev.Action,
		Outcome:   ev.Outcome,
		Source:    ev.Source,
		Actor:     ev.Actor,
		Details:   ev.Details,
		Timestamp: ev.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	if err := s.pub.Publish(s.topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing audit event: %w", err)
	}
	return nil
}

// PointWriter is the slice of the InfluxDB client used by InfluxSink.
type PointWriter interface {
	WriteSecurityEvent(action, outcome string, at time.Time)
}

// InfluxSink counts events as time-series points.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink returns a sink writing through w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Write records ev. Delivery errors surface through the client's error
// callback, not here.
func (s *InfluxSink) Write(_ context.Context, ev *Event) error {
	s.w.WriteSecurityEvent(ev.Action, ev.Outcome, ev.CreatedAt)
	return nil
}

// LogSink writes each event to a structured logger.
type LogSink struct {
	logger interface {
		Info(msg string, args ...any)
	}
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger interface{ Info(msg string, args ...any) }) *LogSink {
	return &LogSink{logger: logger}
}

// Write logs ev.
func (s *LogSink) Write(_ context.Context, ev *Event) error {
	s.logger.Info("security event",
		"event_id", ev.ID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"actor", ev.Actor,
		"remote_addr", ev.RemoteAddr,
	)
	return nil
}
