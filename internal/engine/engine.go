package engine

import (
	"fmt"
	"strings"
)

// Engine exposes the booking API over a Catalog and owns the locking
// discipline and transactional semantics each operation requires.
// Mirrors CBooking's public surface (book_seats/unbook_seats/get_free_seats/
// get_booked_seats/dump_status), minus the join/leave booker calls
// which live on Registry here instead of being folded into the same
// type as in the original.
type Engine struct {
	catalog *Catalog
}

// New wraps a loaded Catalog in an Engine.
func New(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// lockedMovie finds a movie by name and returns it without locking —
// callers lock it themselves so the lock span covers exactly one
// operation, same as every entry point in CBooking does.
func (e *Engine) lockedMovie(movieName string) (*Movie, error) {
	m, ok := e.catalog.movies[movieName]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// Book grants as many of the requested seats as the booker is entitled
// to. With bestEffort false (strict booking), it grants all requested
// seats or none, reporting conflicts in the returned unavailable slice.
// With bestEffort true, it grants whichever requested seats are free or
// already self-owned and reports the rest as unavailable. The returned
// count is always the booker's total owned-seat count in this theatre
// after the call. See SPEC_FULL.md §4.1 for the full algorithm.
func (e *Engine) Book(booker *Booker, movieName, theatreName string, seats []int, bestEffort bool) (ownedCount int, unavailable []int, err error) {
	if booker == nil {
		return 0, nil, ErrInvalidArgument
	}

	m, err := e.lockedMovie(movieName)
	if err != nil {
		return 0, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.theatre(theatreName)
	if !ok {
		return 0, nil, ErrNotFound
	}

	return t.bookSeats(booker.UID(), seats, bestEffort)
}

// Unbook releases the requested seats the booker owns, reporting any
// requested seat not owned by this booker in the returned invalid
// slice. See SPEC_FULL.md §4.1 for the full algorithm, including the
// "booker has no entry at all" edge case.
func (e *Engine) Unbook(booker *Booker, movieName, theatreName string, seats []int) (released int, invalid []int, err error) {
	if booker == nil {
		return 0, nil, ErrInvalidArgument
	}

	m, err := e.lockedMovie(movieName)
	if err != nil {
		return 0, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.theatre(theatreName)
	if !ok {
		return 0, nil, ErrNotFound
	}

	return t.unbookSeats(booker.UID(), seats)
}

// FreeSeats returns a snapshot of the theatre's currently free seats,
// sorted ascending.
func (e *Engine) FreeSeats(movieName, theatreName string) ([]int, error) {
	m, err := e.lockedMovie(movieName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.theatre(theatreName)
	if !ok {
		return nil, ErrNotFound
	}

	return t.freeSnapshot(), nil
}

// OwnedSeats returns a snapshot of the booker's owned seats in a
// theatre, sorted ascending, empty if the booker owns none there.
func (e *Engine) OwnedSeats(booker *Booker, movieName, theatreName string) ([]int, error) {
	if booker == nil {
		return nil, ErrInvalidArgument
	}

	m, err := e.lockedMovie(movieName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.theatre(theatreName)
	if !ok {
		return nil, ErrNotFound
	}

	return t.ownedSnapshot(booker.UID()), nil
}

// DumpStatus renders a human-readable multi-line status of every
// movie, theatre, free-seat set, and booker's owned seats. It acquires
// each Movie's lock in turn rather than a single lock over the whole
// catalog, so an in-flight booking in one movie never blocks status
// inspection of another. The outer movie map itself is read without a
// lock, relying on the catalog's shape being fixed at load time (this
// invariant is documented, not enforced).
func (e *Engine) DumpStatus() string {
	var b strings.Builder

	for _, movieName := range e.catalog.sortedMovieNames() {
		m := e.catalog.movies[movieName]

		b.WriteString("Movie: ")
		b.WriteString(movieName)
		b.WriteString("\n")

		m.mu.Lock()
		for _, theatreName := range m.sortedTheatreNames() {
			t := m.theatres[theatreName]

			b.WriteString("   Theater: ")
			b.WriteString(theatreName)
			b.WriteString("\n")

			b.WriteString("     Free seats: ")
			b.WriteString(renderSeats(t.freeSnapshot()))
			b.WriteString("\n")

			b.WriteString("     Allocated seats:\n")
			for _, uid := range sortedOwnerUIDs(t.owned) {
				b.WriteString("        ")
				b.WriteString(padRight(uid, 20))
				b.WriteString(": ")
				b.WriteString(renderSeats(t.ownedSnapshot(uid)))
				b.WriteString("\n")
			}
		}
		m.mu.Unlock()
	}

	return b.String()
}

func sortedOwnerUIDs(owned map[string]seatSet) []string {
	uids := make([]string, 0, len(owned))
	for uid := range owned {
		uids = append(uids, uid)
	}
	sortStrings(uids)
	return uids
}

// padRight right-pads uid to width characters with spaces, mirroring
// dump_status's 20-character UID column in the original.
func padRight(uid string, width int) string {
	if len(uid) >= width {
		return uid
	}
	return uid + strings.Repeat(" ", width-len(uid))
}

// renderSeats is the comma-space-separated ascending rendering used by
// both dump_status and the session's seat-list output.
func renderSeats(seats []int) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

// RenderSeats exposes renderSeats for callers outside this package
// (the session layer renders the same seat lists back to the client).
func RenderSeats(seats []int) string { return renderSeats(seats) }
