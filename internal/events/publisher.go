// Package events publishes booking lifecycle events as CloudEvents.
package events

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/kafka"
)

// Source identifies this service in published CloudEvents.
const Source = "service-shareit"

// Booking event types.
const (
	BookingCreated  = "shareit.booking.created"
	BookingApproved = "shareit.booking.approved"
	BookingRejected = "shareit.booking.rejected"
	BookingDeleted  = "shareit.booking.deleted"
)

// BookingCreatedEvent is published after a booking is stored in WAITING status.
type BookingCreatedEvent struct {
	BookingID  int64     `json:"bookingId"`
	ItemID     int64     `json:"itemId"`
	BookerID   int64     `json:"bookerId"`
	OwnerID    int64     `json:"ownerId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingDecidedEvent is published when the owner approves or rejects a booking.
type BookingDecidedEvent struct {
	BookingID  int64     `json:"bookingId"`
	ItemID     int64     `json:"itemId"`
	BookerID   int64     `json:"bookerId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingDeletedEvent is published after a booking is removed.
type BookingDeletedEvent struct {
	BookingID  int64     `json:"bookingId"`
	ItemID     int64     `json:"itemId"`
	DeletedBy  *int64    `json:"deletedBy,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// KafkaPublisher wraps domain payloads in CloudEvents and writes them to one topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher creates a KafkaPublisher writing to topic.
func NewKafkaPublisher(producer *kafka.Producer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends data as a CloudEvent of eventType, partitioned by key.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	cloudEvent, err := kafka.NewCloudEvent(Source, eventType, data)
	if err != nil {
		return fmt.Errorf("failed to create cloud event: %w", err)
	}
	return p.producer.PublishEvent(ctx, p.topic, key, cloudEvent)
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, string, interface{}) error {
	return nil
}
