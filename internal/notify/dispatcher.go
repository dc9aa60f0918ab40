package notify

import (
	"context"
	"sync"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

// Publisher is what the engine sees: fire-and-forget emission of timeline
// events. The engine never blocks on delivery.
type Publisher interface {
	Publish(ev domain.TimelineEvent)
}

// Sink is one delivery target for timeline events.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev domain.TimelineEvent) error
}

// Dispatcher fans timeline events out to sinks from a worker pool fed by
// a buffered channel. When the buffer is full the event is dropped and
// logged; the persisted timeline row remains the durable record.
type Dispatcher struct {
	events  chan domain.TimelineEvent
	sinks   []Sink
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(buffer, workers int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Dispatcher{
		events:  make(chan domain.TimelineEvent, buffer),
		sinks:   sinks,
		workers: workers,
	}
}

// Start launches the delivery workers. Workers drain until Close is
// called and the buffer empties, or the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.events:
			if !ok {
				return
			}
			for _, sink := range d.sinks {
				if err := sink.Deliver(ctx, ev); err != nil {
					logger.Warn("Timeline event delivery failed",
						"sink", sink.Name(), "event_type", ev.Type, "booking_id", ev.BookingID, "error", err)
				}
			}
		}
	}
}

// Publish enqueues the event without blocking.
func (d *Dispatcher) Publish(ev domain.TimelineEvent) {
	select {
	case d.events <- ev:
	default:
		logger.Warn("Timeline event buffer full, dropping", "event_type", ev.Type, "booking_id", ev.BookingID)
	}
}

// Close stops accepting events and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.events) })
	d.wg.Wait()
}
