package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// consumerLogger is the subset of logging StartConsumer needs,
// satisfied by the standard library's *log.Logger — same shape as
// session.Logger.
type consumerLogger interface {
	Printf(format string, args ...any)
}

// StartConsumer connects to RabbitMQ, declares the booking.confirmed
// queue, and writes every delivery to store. It runs a reconnect loop
// with exponential backoff and only returns once ctx is cancelled.
func StartConsumer(ctx context.Context, url string, store *Store, log consumerLogger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleepOrDone(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, store); err != nil {
			log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
			if !sleepOrDone(ctx, 2*time.Second) {
				return ctx.Err()
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, store *Store) error {
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, store, d.Body); err != nil {
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

func handleDelivery(ctx context.Context, store *Store, body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return store.Record(ctx, ev)
}
