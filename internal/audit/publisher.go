package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ucm/internal/platform/metrics"
	"ucm/pkg/domain"
)

// Sink mirrors events to an external system (e.g. Kafka). Delivery is
// best-effort; implementations must not block the caller.
type Sink interface {
	Publish(event Event)
}

// Publisher captures privacy-relevant events on the best-effort path
// (privacy_headers, anomalies). A publish failure is isolated: it is logged
// and counted, never surfaced to the caller's primary operation.
//
// consent_write events do NOT go through the Publisher - they are persisted
// transactionally with the consent record by the consent store.
type Publisher struct {
	store   Store
	events  chan Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    Sink
	async   bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithMetrics enables audit event counters.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithSink mirrors every published event to an external sink.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.persist(context.Background(), event)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records an event. It never fails the caller: persistence errors are
// logged and counted for gap monitoring.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID.IsNil() {
		event.ID = domain.NewAuditEventID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if p.sink != nil {
		p.sink.Publish(event)
	}

	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking
		// the request hot path.
		select {
		case p.events <- event:
		default:
			p.countFailure()
			p.logger.Warn("audit buffer full, event dropped",
				"type", string(event.Type),
				"site", event.Site,
			)
		}
		return
	}
	p.persist(ctx, event)
}

// Query reads events back, newest-first.
func (p *Publisher) Query(ctx context.Context, filter Filter) ([]Event, error) {
	return p.store.Query(ctx, filter)
}

func (p *Publisher) persist(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.countFailure()
		p.logger.Error("failed to persist audit event",
			"error", err,
			"type", string(event.Type),
			"site", event.Site,
		)
		return
	}
	if p.metrics != nil {
		p.metrics.AuditEvents.WithLabelValues(string(event.Type)).Inc()
	}
}

func (p *Publisher) countFailure() {
	if p.metrics != nil {
		p.metrics.AuditWriteFailures.Inc()
	}
}
