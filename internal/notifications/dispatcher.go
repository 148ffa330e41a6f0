package notifications

import (
	"context"
	"log/slog"
	"time"

	"hearth/internal/models"
	"hearth/internal/observability"
)

const (
	defaultEventQueueSize = 1024
	defaultPublishTimeout = time.Second
)

// DispatcherConfig bounds the publish queue.
type DispatcherConfig struct {
	QueueSize      int
	PublishTimeout time.Duration
}

type outbound struct {
	userID    string
	eventType models.EventType
	payload   []byte
}

// Dispatcher decouples event publication from the write path. PublishUser
// never blocks: events are queued and a worker started by Run performs the
// PUBLISH. When the queue is full the event is dropped.
type Dispatcher struct {
	notifier *Notifier
	queue    chan outbound
	timeout  time.Duration
}

// NewDispatcher creates a Dispatcher. Call Run to start delivery.
func NewDispatcher(n *Notifier, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultEventQueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	return &Dispatcher{
		notifier: n,
		queue:    make(chan outbound, cfg.QueueSize),
		timeout:  cfg.PublishTimeout,
	}
}

// PublishUser enqueues event for userID's channel.
func (d *Dispatcher) PublishUser(userID string, event models.Event) {
	payload, err := event.Encode()
	if err != nil {
		observability.EventsDropped.WithLabelValues("encode").Inc()
		observability.GlobalLogger.Error("failed to encode event",
			slog.String("user_id", userID), slog.String("event_type", string(event.Type)), slog.String("error", err.Error()))
		return
	}

	select {
	case d.queue <- outbound{userID: userID, eventType: event.Type, payload: payload}:
	default:
		observability.EventsDropped.WithLabelValues("queue_full").Inc()
		observability.GlobalLogger.Warn("event queue full, dropped event",
			slog.String("user_id", userID), slog.String("event_type", string(event.Type)))
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-d.queue:
			d.publish(ctx, job)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, job outbound) {
	pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Publish(pubCtx, job.userID, job.payload); err != nil {
		observability.EventsDropped.WithLabelValues("publish_failed").Inc()
		observability.LogAsyncOperationError(ctx, "publish_event", err, map[string]any{
			"user_id":    job.userID,
			"event_type": string(job.eventType),
		})
		return
	}
	observability.EventsPublished.WithLabelValues(string(job.eventType)).Inc()
}
