package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const bookingQueueName = "booking.confirmed"

// Publisher holds a long-lived RabbitMQ connection and channel opened
// once at startup rather than dialed per call — a booking session
// publishes far more often than a typical HTTP handler does, so
// per-call dials would dominate the connection's lifetime.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials url and declares the durable booking.confirmed
// queue (durable, non-autodelete, non-exclusive).
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("audit: dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("audit: declare queue: %w", err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// PublishBookingConfirmed marshals and publishes one event as a
// persistent message, so a broker restart never silently drops a
// confirmed booking.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, bookerUID, movie, theatre string, seats []int) error {
	body, err := json.Marshal(BookingConfirmedEvent{
		BookerUID: bookerUID,
		Movie:     movie,
		Theatre:   theatre,
		Seats:     seats,
		GrantedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		"",
		bookingQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	ch := p.ch.Close()
	conn := p.conn.Close()
	if ch != nil {
		return ch
	}
	return conn
}
