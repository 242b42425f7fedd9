// Package audit records confirmed bookings outside the in-memory
// engine: a durable RabbitMQ event and a MySQL trail. Reservation
// state itself is never persisted, so audit records are a side
// channel a booking never waits on or rolls back for.
package audit

import "time"

// BookingConfirmedEvent is published to the "booking.confirmed" queue
// whenever a book or trybook call grants at least one seat.
type BookingConfirmedEvent struct {
	BookerUID  string    `json:"booker_uid"`
	Movie      string    `json:"movie"`
	Theatre    string    `json:"theatre"`
	Seats      []int     `json:"seats"`
	GrantedAt  time.Time `json:"granted_at"`
}
