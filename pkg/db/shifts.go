package db

import "sort"

// SortShifts orders shifts by date then by the location display order given in locationOrder.
// Locations missing from locationOrder sort last, by ID.
func SortShifts(shifts []Shift, locationOrder map[string]int) {
	rank := func(id string) int {
		if r, ok := locationOrder[id]; ok {
			return r
		}
		return len(locationOrder)
	}

	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.ShiftDate != b.ShiftDate {
			return a.ShiftDate < b.ShiftDate
		}
		ra, rb := rank(a.LocationID), rank(b.LocationID)
		if ra != rb {
			return ra < rb
		}
		return a.LocationID < b.LocationID
	})
}

// FindDuplicateKeys returns the keys that occur more than once among shifts of the same status
func FindDuplicateKeys(shifts []Shift) []ShiftKey {
	type statusKey struct {
		key    ShiftKey
		status string
	}

	seen := make(map[statusKey]int)
	var duplicates []ShiftKey
	for _, s := range shifts {
		k := statusKey{key: s.Key(), status: string(s.Status)}
		seen[k]++
		if seen[k] == 2 {
			duplicates = append(duplicates, s.Key())
		}
	}
	return duplicates
}
