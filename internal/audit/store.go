package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mstoyanov/booker/internal/database"
)

// OpenStore connects to MySQL and verifies the connection. Delegates
// to internal/database.Open for the DSN shape and pool settings — the
// audit sink is just another consumer of that connection helper, not
// a reason to fork it.
func OpenStore(user, pass, host, port, name string) (*sql.DB, error) {
	return database.Open(user, pass, host, port, name)
}

// EnsureSchema creates the audit trail table if it doesn't already
// exist. Called once at startup rather than via a migration tool.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS booking_audit (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			booker_uid VARCHAR(128) NOT NULL,
			movie VARCHAR(255) NOT NULL,
			theatre VARCHAR(255) NOT NULL,
			seats_json TEXT NOT NULL,
			granted_at DATETIME NOT NULL,
			recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_booker_uid (booker_uid)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`)
	return err
}

// Store writes confirmed-booking events to the audit table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-opened, schema-verified *sql.DB.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts one booking audit row.
func (s *Store) Record(ctx context.Context, ev BookingConfirmedEvent) error {
	seatsJSON, err := json.Marshal(ev.Seats)
	if err != nil {
		return fmt.Errorf("audit: marshal seats: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO booking_audit (booker_uid, movie, theatre, seats_json, granted_at) VALUES (?, ?, ?, ?, ?)`,
		ev.BookerUID, ev.Movie, ev.Theatre, string(seatsJSON), ev.GrantedAt,
	)
	return err
}
