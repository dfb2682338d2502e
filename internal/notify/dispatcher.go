// Package notify hands booking notifications off to Kafka. Dispatch is
// fire-and-forget: the booking flow enqueues and moves on, and delivery
// failures are observable in logs and on the DLQ without ever touching
// booking state.
package notify

import (
	"context"
	"sync"
	"time"

	"bokari/pkg/kafka"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

const (
	KindConfirmation = "confirmation"
	KindCancellation = "cancellation"
)

// Publisher is the producer surface the dispatcher needs; satisfied by
// *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Event is the payload published for downstream delivery workers.
type Event struct {
	Kind          string    `json:"kind"`
	BookingID     string    `json:"booking_id"`
	SlotKey       string    `json:"slot_key"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Dispatcher decouples booking flows from notification delivery through a
// buffered queue drained by a single worker goroutine. Enqueueing never
// blocks; when the queue is full the event is dropped and logged.
type Dispatcher struct {
	publisher Publisher
	queue     chan Event
	log       *logger.Logger
	wg        sync.WaitGroup
	once      sync.Once
}

func NewDispatcher(publisher Publisher, queueSize int, log *logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		publisher: publisher,
		queue:     make(chan Event, queueSize),
		log:       log,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Dispatch enqueues a notification for the booking. The outcome never
// affects booking status.
func (d *Dispatcher) Dispatch(kind string, booking *model.Booking) {
	event := Event{
		Kind:          kind,
		BookingID:     booking.ID,
		SlotKey:       booking.SlotKey(),
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		CustomerPhone: booking.CustomerPhone,
		OccurredAt:    time.Now().UTC(),
	}

	select {
	case d.queue <- event:
	default:
		d.log.Warn("notification queue full, dropping event",
			"kind", kind,
			"booking_id", booking.ID,
		)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for event := range d.queue {
		msg := kafka.NewMessage().
			WithKey(event.BookingID).
			WithValue(event).
			WithEventType("booking." + event.Kind).
			WithSource("bokari-engine").
			Build()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := d.publisher.Publish(ctx, msg)
		cancel()

		if err != nil {
			d.log.Error("failed to publish notification",
				"kind", event.Kind,
				"booking_id", event.BookingID,
				"error", err,
			)
			continue
		}
		d.log.Info("notification dispatched",
			"kind", event.Kind,
			"booking_id", event.BookingID,
			"slot", event.SlotKey,
		)
	}
}

// Stop drains the queue and stops the worker.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}
