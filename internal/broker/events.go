package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer    *Producer
	orderTopic  string
	notifyTopic string
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer, orderTopic, notifyTopic string) *EventPublisher {
	return &EventPublisher{
		producer:    producer,
		orderTopic:  orderTopic,
		notifyTopic: notifyTopic,
	}
}

// NewBaseEvent stamps a fresh event ID and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, ep.orderTopic, orderKey(event.OrderNumber), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, ep.orderTopic, orderKey(event.OrderNumber), event)
}

// PublishPaymentUpdated publishes PaymentUpdated event
func (ep *EventPublisher) PublishPaymentUpdated(ctx context.Context, event *models.PaymentUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, ep.orderTopic, orderKey(event.OrderNumber), event)
}

// PublishNotification queues one email for the notification worker.
// Messages are keyed by recipient so one inbox sees its mail in order.
func (ep *EventPublisher) PublishNotification(ctx context.Context, event *models.NotificationEvent) error {
	return ep.producer.PublishEvent(ctx, ep.notifyTopic, event.To, event)
}

func orderKey(orderNumber string) string {
	return fmt.Sprintf("order-%s", orderNumber)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onNotification func(context.Context, *models.NotificationEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("events")}
}

// OnNotification registers a handler for Notification events
func (eh *EventHandler) OnNotification(handler func(context.Context, *models.NotificationEvent) error) {
	eh.onNotification = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeNotification:
		if eh.onNotification != nil {
			var event models.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal Notification event: %w", err)
			}
			return eh.onNotification(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
