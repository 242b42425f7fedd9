package engine

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func godfatherCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load(CatalogConfig{
		Movies: []MovieConfig{
			{Movie: "GodFather", Theatres: []string{"Tokyo", "Delhi", "Shanghai", "SaoPaulo", "MexicoCity"}},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cat
}

// TestScenario runs an end-to-end book/unbook/trybook sequence across
// two bookers sharing one theatre.
func TestScenario(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("1.2.3.4:1111@1")
	b2 := NewBooker("5.6.7.8:2222@2")

	owned, unavail, err := e.Book(b1, "GodFather", "Delhi", []int{17, 12}, false)
	if err != nil || owned != 2 || len(unavail) != 0 {
		t.Fatalf("step1: owned=%d unavail=%v err=%v", owned, unavail, err)
	}
	free, _ := e.FreeSeats("GodFather", "Delhi")
	if len(free) != MaxSeats-2 || contains(free, 12) || contains(free, 17) {
		t.Fatalf("step1: unexpected free set %v", free)
	}

	owned, unavail, err = e.Book(b1, "GodFather", "Delhi", []int{17}, false)
	if err != nil || owned != 2 || len(unavail) != 0 {
		t.Fatalf("step2: owned=%d unavail=%v err=%v", owned, unavail, err)
	}

	released, invalid, err := e.Unbook(b1, "GodFather", "Delhi", []int{10})
	if err != nil || released != 0 || !reflect.DeepEqual(invalid, []int{10}) {
		t.Fatalf("step3: released=%d invalid=%v err=%v", released, invalid, err)
	}

	released, invalid, err = e.Unbook(b2, "GodFather", "Delhi", []int{17})
	if err != nil || released != 1 || !reflect.DeepEqual(invalid, []int{17}) {
		t.Fatalf("step4: released=%d invalid=%v err=%v", released, invalid, err)
	}
	ownedSeats, _ := e.OwnedSeats(b1, "GodFather", "Delhi")
	if !contains(ownedSeats, 17) {
		t.Fatalf("step4: b1 should still own 17, got %v", ownedSeats)
	}

	// b1 takes seat 10 so that b2's requests below conflict on it.
	e.Book(b1, "GodFather", "Delhi", []int{10}, false)

	owned, unavail, err = e.Book(b2, "GodFather", "Delhi", []int{10, 15}, false)
	if err != nil || owned != 0 || !reflect.DeepEqual(unavail, []int{10}) {
		t.Fatalf("step5: owned=%d unavail=%v err=%v", owned, unavail, err)
	}
	ownedSeats, _ = e.OwnedSeats(b2, "GodFather", "Delhi")
	if len(ownedSeats) != 0 {
		t.Fatalf("step5: b2 should own nothing, got %v", ownedSeats)
	}

	owned, unavail, err = e.Book(b2, "GodFather", "Delhi", []int{10, 15}, true)
	if err != nil || owned != 1 || !reflect.DeepEqual(unavail, []int{10}) {
		t.Fatalf("step6: owned=%d unavail=%v err=%v", owned, unavail, err)
	}

	_, _, err = e.Book(b1, "GodFather", "Delhi", []int{22}, false)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("step7: expected ErrOutOfRange, got %v", err)
	}
	ownedSeats, _ = e.OwnedSeats(b1, "GodFather", "Delhi")
	if !reflect.DeepEqual(ownedSeats, []int{10, 12, 17}) {
		t.Fatalf("step7: b1 ownership changed: %v", ownedSeats)
	}
}

func TestRenderSeats(t *testing.T) {
	got := RenderSeats([]int{2, 5, 6, 8, 9, 10, 11, 12, 13, 14})
	if got != "2, 5, 6, 8, 9, 10, 11, 12, 13, 14" {
		t.Fatalf("render: got %q", got)
	}
}

func TestBookEmptySeatsIsNoOp(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("1.2.3.4:1111@1")

	owned, unavail, err := e.Book(b1, "GodFather", "Delhi", nil, false)
	if err != nil || owned != 0 || len(unavail) != 0 {
		t.Fatalf("new booker empty request: owned=%d unavail=%v err=%v", owned, unavail, err)
	}

	e.Book(b1, "GodFather", "Delhi", []int{1, 2}, false)
	owned, unavail, err = e.Book(b1, "GodFather", "Delhi", []int{}, false)
	if err != nil || owned != 2 || len(unavail) != 0 {
		t.Fatalf("existing booker empty request: owned=%d unavail=%v err=%v", owned, unavail, err)
	}
}

func TestUnbookWithNoEntryReportsAllInvalid(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("1.2.3.4:1111@1")

	released, invalid, err := e.Unbook(b1, "GodFather", "Delhi", []int{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 3 || !reflect.DeepEqual(invalid, []int{1, 2, 3}) {
		t.Fatalf("released=%d invalid=%v", released, invalid)
	}
}

func TestUnknownMovieOrTheatre(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("1.2.3.4:1111@1")

	if _, _, err := e.Book(b1, "Matrix", "Tokyo", []int{1}, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown movie, got %v", err)
	}
	if _, _, err := e.Book(b1, "GodFather", "Paris", []int{1}, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown theatre, got %v", err)
	}
}

// TestInvariantFreeOwnedPartition checks that every seat is either
// free or owned by exactly one booker, never both, after a mixed
// sequence of operations.
func TestInvariantFreeOwnedPartition(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("b1")
	b2 := NewBooker("b2")

	e.Book(b1, "GodFather", "Tokyo", []int{0, 1, 2, 3}, false)
	e.Book(b2, "GodFather", "Tokyo", []int{4, 5}, true)
	e.Unbook(b1, "GodFather", "Tokyo", []int{1})

	free, _ := e.FreeSeats("GodFather", "Tokyo")
	seen := make(map[int]bool)
	for _, s := range free {
		if seen[s] {
			t.Fatalf("duplicate free seat %d", s)
		}
		seen[s] = true
	}

	b1Owned, _ := e.OwnedSeats(b1, "GodFather", "Tokyo")
	b2Owned, _ := e.OwnedSeats(b2, "GodFather", "Tokyo")
	total := len(free) + len(b1Owned) + len(b2Owned)
	if total != MaxSeats {
		t.Fatalf("partition broken: free=%v b1=%v b2=%v", free, b1Owned, b2Owned)
	}
	for _, s := range b1Owned {
		if seen[s] {
			t.Fatalf("seat %d both free and owned by b1", s)
		}
	}
}

// TestBookThenUnbookIsIdentity checks property 3.
func TestBookThenUnbookIsIdentity(t *testing.T) {
	e := New(godfatherCatalog(t))
	b1 := NewBooker("b1")

	before, _ := e.FreeSeats("GodFather", "Tokyo")

	e.Book(b1, "GodFather", "Tokyo", []int{3, 4, 5}, false)
	e.Unbook(b1, "GodFather", "Tokyo", []int{3, 4, 5})

	after, _ := e.FreeSeats("GodFather", "Tokyo")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("book+unbook not identity: before=%v after=%v", before, after)
	}
}

// TestConcurrentBookSingleSeatNoDoubleGrant hammers one seat from many
// goroutines and asserts exactly one booker ends up owning it — the
// Movie lock must serialize every call even when MAXPROCS > 1.
func TestConcurrentBookSingleSeatNoDoubleGrant(t *testing.T) {
	e := New(godfatherCatalog(t))
	const n = 50

	var wg sync.WaitGroup
	grants := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := NewBooker(fakeUID(i))
			owned, _, err := e.Book(b, "GodFather", "Tokyo", []int{7}, true)
			if err == nil && owned == 1 {
				grants[i] = true
			}
		}(i)
	}
	wg.Wait()

	count := 0
	for _, g := range grants {
		if g {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 booker to grab seat 7, got %d", count)
	}
}

func fakeUID(i int) string {
	return "booker-" + string(rune('A'+i%26)) + string(rune('0'+i/26))
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
