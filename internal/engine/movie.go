package engine

import "sync"

// Movie holds one serialization lock covering all of its theatres, as
// required by spec: every mutating or reading operation on any of a
// movie's theatres acquires this single lock for the call's duration.
// Mirrors CBooking::movie (a std::mutex alongside the theatres map).
type Movie struct {
	mu       sync.Mutex
	theatres map[string]*TheatreReservation // key set fixed at load time
}

func newMovie() *Movie {
	return &Movie{theatres: make(map[string]*TheatreReservation)}
}

// theatre looks up a theatre by name. Caller must hold mu.
func (m *Movie) theatre(name string) (*TheatreReservation, bool) {
	t, ok := m.theatres[name]
	return t, ok
}

// bookSeats performs the seat-allocation decision for one theatre,
// under the Movie's lock. It layers exactly like the original's
// locked helper: find-or-create the booker's owned set, delegate the
// free/owned/requested set algebra, and only persist a newly created
// owned-set entry if it ends up non-empty.
func (t *TheatreReservation) bookSeats(bookerUID string, seats []int, bestEffort bool) (ownedCount int, unavailable []int, err error) {
	owned, exists := t.owned[bookerUID]
	isNewBooker := !exists
	if isNewBooker {
		owned = make(seatSet)
	}

	newlyReserved, unavailable, err := allocateSeats(t.free, owned, seats, bestEffort)
	if err != nil {
		return 0, unavailable, err
	}

	if len(newlyReserved) == 0 && isNewBooker {
		// No-op: nothing granted and the booker had no prior entry.
		return 0, unavailable, nil
	}

	for seat := range newlyReserved {
		owned.add(seat)
	}
	if isNewBooker {
		t.owned[bookerUID] = owned
	}
	return len(owned), unavailable, nil
}

// allocateSeats implements the range-check, allocate-or-rollback, and
// decision steps of book: for each requested seat, either move it from
// free into a scratch newlyReserved set, accept it as already
// self-owned (no-op), or record it as unavailable. On range failure or
// a non-empty unavailable list under strict booking, every seat moved
// into newlyReserved is rolled back into free before returning.
func allocateSeats(free seatSet, owned seatSet, seats []int, bestEffort bool) (newlyReserved seatSet, unavailable []int, err error) {
	newlyReserved = make(seatSet)
	unavailable = []int{}

	sorted := append([]int(nil), seats...)
	sortInts(sorted)

	outOfRange := false
	for _, seat := range sorted {
		if seat >= MaxSeats || seat < 0 {
			outOfRange = true
			break
		}
		if free.has(seat) {
			newlyReserved.add(seat)
			free.remove(seat)
		} else if owned.has(seat) || newlyReserved.has(seat) {
			// Already ours (existing ownership or requested twice): no-op.
		} else {
			unavailable = append(unavailable, seat)
		}
	}

	if outOfRange || (len(unavailable) > 0 && !bestEffort) {
		for seat := range newlyReserved {
			free.add(seat)
		}
		if outOfRange {
			return nil, nil, ErrOutOfRange
		}
		return make(seatSet), unavailable, nil
	}

	return newlyReserved, unavailable, nil
}

// unbookSeats releases the booker's seats, under the Movie's lock.
// Mirrors CBooking::unbook_seats(booker, reservation, ...). When the
// booker has no entry at all, every requested seat is reported invalid
// and the returned count is the size of that invalid list (not zero) —
// this matches the original's "return invalid_seats.size()" even
// though nothing was released.
func (t *TheatreReservation) unbookSeats(bookerUID string, seats []int) (released int, invalid []int, err error) {
	owned, ok := t.owned[bookerUID]
	if !ok {
		invalid = append([]int(nil), seats...)
		return len(invalid), invalid, nil
	}

	for _, seat := range seats {
		if seat >= MaxSeats || seat < 0 {
			return 0, nil, ErrOutOfRange
		}
	}

	invalid = []int{}
	for _, seat := range seats {
		if owned.has(seat) {
			released++
			owned.remove(seat)
			t.free.add(seat)
		} else {
			invalid = append(invalid, seat)
		}
	}

	if len(owned) == 0 {
		delete(t.owned, bookerUID)
	}

	return released, invalid, nil
}
