// Package parser converts between the CLI's seat-list literal syntax
// (e.g. "1, 2, 5-7, 10") and a sorted, deduplicated slice of seat
// indices. Grounded on original_source/src/parser.cpp's
// str_to_seats/get_seats/seats_to_string.
package parser

import (
	"strconv"
	"strings"
)

// ParseSeatList parses a comma-separated seat-list literal. Each item
// is either a single non-negative decimal integer or a range "A-B";
// either side of a range may be empty, meaning 0 (left) or maxValue
// (right). Whitespace around commas is trimmed. Values above maxValue
// are clamped to it. The result is sorted ascending with duplicates
// removed.
func ParseSeatList(s string, maxValue int) ([]int, error) {
	seen := make(map[int]struct{})
	var order []int

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if dash := strings.IndexByte(item, '-'); dash >= 0 {
			startStr := strings.TrimSpace(item[:dash])
			endStr := strings.TrimSpace(item[dash+1:])

			start := 0
			if startStr != "" {
				v, err := strconv.Atoi(startStr)
				if err != nil {
					return nil, err
				}
				start = v
			}
			end := maxValue
			if endStr != "" {
				v, err := strconv.Atoi(endStr)
				if err != nil {
					return nil, err
				}
				end = v
			}
			if start > maxValue {
				start = maxValue
			}
			if end > maxValue {
				end = maxValue
			}
			for i := start; i <= end; i++ {
				addSeat(seen, &order, i)
			}
			continue
		}

		v, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		if v > maxValue {
			v = maxValue
		}
		addSeat(seen, &order, v)
	}

	sortInts(order)
	return order, nil
}

func addSeat(seen map[int]struct{}, order *[]int, seat int) {
	if _, ok := seen[seat]; ok {
		return
	}
	seen[seat] = struct{}{}
	*order = append(*order, seat)
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// RenderSeatList renders a sorted seat slice back to the literal
// rendering form: ascending, comma-space separated.
func RenderSeatList(seats []int) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}
