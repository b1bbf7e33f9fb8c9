// Package events publishes schedule update notifications to Redis so
// front ends can refresh without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openconf/schedtrack/pkg/logging"
)

// Redis channels for schedule events.
const (
	ChannelScheduleUpdated = "events.schedule.updated"
	ChannelScheduleFailed  = "events.schedule.parse_failed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
	Source        string    `json:"source"`
}

// NewBaseEvent creates a BaseEvent with a fresh correlation ID.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.NewString(),
		Source:        "schedtrack",
	}
}

// ScheduleUpdatedEvent is published after a reconciled schedule has
// been stored.
type ScheduleUpdatedEvent struct {
	BaseEvent

	Version  string `json:"version"`
	ETag     string `json:"etag,omitempty"`
	NumDays  int    `json:"num_days"`
	Sessions int    `json:"sessions"`

	Changed          bool `json:"changed"`
	NewSessions      int  `json:"new_sessions"`
	CanceledSessions int  `json:"canceled_sessions"`
	UpdatedSessions  int  `json:"updated_sessions"`
}

// ScheduleParseFailedEvent is published when a download could not be
// parsed. The previously stored schedule stays untouched.
type ScheduleParseFailedEvent struct {
	BaseEvent

	Version string `json:"version,omitempty"`
	Reason  string `json:"reason"`
}

// Client is the slice of the Redis API the publisher needs. A
// *redis.Client satisfies it.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Publisher publishes schedule events to Redis.
type Publisher struct {
	client Client
	logger logging.Logger
}

// NewPublisher creates a publisher on an existing Redis client.
func NewPublisher(client Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// PublishScheduleUpdated publishes a ScheduleUpdatedEvent.
func (p *Publisher) PublishScheduleUpdated(ctx context.Context, ev ScheduleUpdatedEvent) error {
	ev.BaseEvent = NewBaseEvent("schedule.updated")
	return p.publish(ctx, ChannelScheduleUpdated, ev)
}

// PublishParseFailed publishes a ScheduleParseFailedEvent.
func (p *Publisher) PublishParseFailed(ctx context.Context, version, reason string) error {
	ev := ScheduleParseFailedEvent{
		BaseEvent: NewBaseEvent("schedule.parse_failed"),
		Version:   version,
		Reason:    reason,
	}
	return p.publish(ctx, ChannelScheduleFailed, ev)
}

func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))
	return nil
}

// Close closes the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
