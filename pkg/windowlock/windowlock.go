// Package windowlock serialises lifecycle runs that touch the same planning weeks.
package windowlock

import (
	"context"
	"sort"
	"time"
)

// Locker takes exclusive ownership of a set of keys.
// Lock blocks until every key is held or ctx is done; the returned func releases them.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// WeekKeys returns one key per Monday-based week overlapping [from, to]
func WeekKeys(from, to time.Time) []string {
	var keys []string
	for week := mondayOf(from); !week.After(to); week = week.AddDate(0, 0, 7) {
		keys = append(keys, "week:"+week.Format("2006-01-02"))
	}
	return keys
}

func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// sortedUnique returns keys deduplicated in ascending order, so that every caller
// acquires overlapping sets in the same order
func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
