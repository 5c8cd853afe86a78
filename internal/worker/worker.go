package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asur-wears/internal/broker"
	"asur-wears/internal/models"
	"asur-wears/internal/notify"
	"asur-wears/internal/util"

	"go.uber.org/zap"
)

const sendTimeout = 15 * time.Second

// NotificationWorker delivers queued notification emails
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       notify.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, mailer notify.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		mailer:       mailer,
		logger:       util.Named("notification-worker"),
	}
	w.eventHandler.OnNotification(w.Deliver)
	return w
}

// Start consumes notifications until ctx is cancelled. Cancellation is a
// normal stop and returns nil.
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	err := w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// Deliver sends one notification email
func (w *NotificationWorker) Deliver(ctx context.Context, event *models.NotificationEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationWorker.Deliver")
	defer span.End()

	if event.To == "" {
		util.NotificationsTotal.WithLabelValues(event.Kind, "skipped").Inc()
		return fmt.Errorf("notification %s has no recipient", event.EventID)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := w.mailer.Send(ctx, notify.Message{To: event.To, Subject: event.Subject, Body: event.Body})
	util.NotificationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		util.NotificationsTotal.WithLabelValues(event.Kind, "failed").Inc()
		return fmt.Errorf("failed to send %s notification: %w", event.Kind, err)
	}

	util.NotificationsTotal.WithLabelValues(event.Kind, "sent").Inc()
	w.logger.Info("Notification sent",
		zap.String("kind", event.Kind),
		zap.String("event_id", event.EventID))
	return nil
}
