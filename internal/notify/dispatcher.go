// Package notify fans order events out to the admin channel and the workflow
// webhook without blocking the request that produced them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"grocery_backend/internal/metrics"
	"grocery_backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Event names.
const (
	AdminEventNewOrder           = "newOrder"
	AdminEventOrderStatusChanged = "orderStatusChanged"
	WebhookOrderCreated          = "order.created"
	WebhookOrderStatusChanged    = "order.status_changed"
)

const (
	channelAdmin   = "admin"
	channelWebhook = "webhook"
)

var errWebhookNotDelivered = errors.New("webhook not delivered")

type job struct {
	channel string
	event   string
	run     func(ctx context.Context) error
}

// Options tunes the dispatcher.
type Options struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Dispatcher is an in-process outbox: events are queued after the order is
// committed and delivered by a fixed pool of workers.
type Dispatcher struct {
	emitter AdminEmitter
	webhook WebhookPoster
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers. webhook may be nil.
func NewDispatcher(emitter AdminEmitter, webhook WebhookPoster, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Second
	}
	d := &Dispatcher{
		emitter: emitter,
		webhook: webhook,
		timeout: opts.JobTimeout,
		queue:   make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// OrderSummary is the admin-channel view of a new order.
type OrderSummary struct {
	OrderID           int64     `json:"orderId"`
	UserID            int64     `json:"userId"`
	TotalAmount       float64   `json:"totalAmount"`
	ItemCount         int       `json:"itemCount"`
	DeliveryPoint     string    `json:"deliveryPoint"`
	DeliveryPointName string    `json:"deliveryPointName"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

func summarize(o models.Order) OrderSummary {
	s := OrderSummary{
		OrderID:           o.ID,
		UserID:            o.UserID,
		TotalAmount:       o.TotalAmount,
		DeliveryPoint:     o.DeliveryPoint,
		DeliveryPointName: o.DeliveryPointName,
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
	}
	for _, it := range o.Items {
		s.ItemCount += it.Quantity
	}
	return s
}

// OrderPlaced queues the new-order admin event and the order.created webhook.
func (d *Dispatcher) OrderPlaced(order models.Order) {
	d.publish(order, AdminEventNewOrder, WebhookOrderCreated)
}

// OrderStatusChanged queues the status-change admin event and webhook.
func (d *Dispatcher) OrderStatusChanged(order models.Order) {
	d.publish(order, AdminEventOrderStatusChanged, WebhookOrderStatusChanged)
}

func (d *Dispatcher) publish(order models.Order, adminEvent, webhookEvent string) {
	summary := summarize(order)
	d.enqueue(job{
		channel: channelAdmin,
		event:   adminEvent,
		run: func(ctx context.Context) error {
			return d.emitter.EmitAdminEvent(ctx, adminEvent, summary)
		},
	})
	if d.webhook == nil {
		return
	}
	d.enqueue(job{
		channel: channelWebhook,
		event:   webhookEvent,
		run: func(ctx context.Context) error {
			if !d.webhook.PostWebhook(ctx, webhookEvent, order) {
				return errWebhookNotDelivered
			}
			return nil
		},
	})
}

// enqueue never blocks. A full or closed queue drops the job.
func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("event", j.event).Msg("notification dropped: dispatcher closed")
		metrics.Notifications.WithLabelValues(j.channel, "dropped").Inc()
		return
	}
	select {
	case d.queue <- j:
		metrics.NotifyQueueDepth.Inc()
	default:
		log.Warn().Str("event", j.event).Str("channel", j.channel).Msg("notification dropped: queue full")
		metrics.Notifications.WithLabelValues(j.channel, "dropped").Inc()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		metrics.NotifyQueueDepth.Dec()
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.run(ctx)
	}()
	if err != nil {
		log.Error().Err(err).Str("event", j.event).Str("channel", j.channel).Msg("notification failed")
		metrics.Notifications.WithLabelValues(j.channel, "failed").Inc()
		return
	}
	metrics.Notifications.WithLabelValues(j.channel, "sent").Inc()
}

// Close stops accepting events and waits for queued ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification queue not drained: %w", ctx.Err())
	}
}
