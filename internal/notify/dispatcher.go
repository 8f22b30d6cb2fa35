package notify

import (
	"context"
	"sync"
	"time"

	"fitbook/pkg/config"
	"fitbook/pkg/kafka"
	"fitbook/pkg/model"
)

const (
	EventSessionBooked          = "session.booked"
	EventSessionCancelled       = "session.cancelled"
	EventSessionRescheduled     = "session.rescheduled"
	EventSessionApproved        = "session.approved"
	EventSessionPendingApproval = "session.pending_approval"
)

const publishTimeout = 10 * time.Second

// Publisher is the slice of the Kafka producer the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Notification is one outbound message to a single recipient. Prefs, when
// set, gates delivery by event category; nil means no per-person opt-out.
type Notification struct {
	To    string
	Type  string
	Data  map[string]any
	Prefs *model.NotificationPrefs
}

// Dispatcher publishes booking lifecycle events to the notification topic.
// Delivery is best effort: failures are logged, never returned, so a Kafka
// outage cannot fail a booking that already committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
	Close()
}

type kafkaDispatcher struct {
	producer Publisher
	cfg      *config.Config
	wg       sync.WaitGroup
}

func NewKafkaDispatcher(producer Publisher, cfg *config.Config) Dispatcher {
	return &kafkaDispatcher{
		producer: producer,
		cfg:      cfg,
	}
}

func (d *kafkaDispatcher) Dispatch(ctx context.Context, n Notification) {
	if !d.cfg.NotificationsEnabled {
		return
	}
	if !allowed(n.Type, n.Prefs) {
		d.cfg.Log.Debug("Notification suppressed by recipient preferences",
			"recipient", n.To,
			"event_type", n.Type,
		)
		return
	}

	msg := kafka.NewMessage().
		WithKey(n.To).
		WithValue(map[string]any{
			"to":   n.To,
			"type": n.Type,
			"data": n.Data,
		}).
		WithEventType(n.Type).
		WithCorrelationID(correlationID(ctx)).
		WithSource("fitbook").
		Build()

	// Publish off the request path with a detached context so the booking
	// response never waits on the broker.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := d.producer.Publish(pubCtx, msg); err != nil {
			d.cfg.Log.Error("Failed to publish notification",
				"recipient", n.To,
				"event_type", n.Type,
				"error", err,
			)
		}
	}()
}

// Close waits for in-flight publishes to drain.
func (d *kafkaDispatcher) Close() {
	d.wg.Wait()
}

func allowed(eventType string, prefs *model.NotificationPrefs) bool {
	if prefs == nil {
		return true
	}
	switch eventType {
	case EventSessionBooked, EventSessionApproved, EventSessionPendingApproval:
		return prefs.BookingEnabled
	case EventSessionCancelled:
		return prefs.CancellationEnabled
	case EventSessionRescheduled:
		return prefs.RescheduleEnabled
	default:
		return true
	}
}

type correlationIDKey struct{}

// WithCorrelationID stamps the context so downstream publishes carry the
// request id of the triggering HTTP call.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
