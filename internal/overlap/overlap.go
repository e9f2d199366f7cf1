package overlap

import "github.com/ljungman/calendard/internal/domain"

// Find returns every event in events whose time range intersects the
// candidate's. Two events overlap when they fall on the same calendar date
// and their [start, end) intervals intersect; an event ending exactly when
// another starts does not overlap it. The candidate itself, matched by id,
// is never reported, so updating an event does not flag the record it
// replaces. Results keep the order of the input list.
func Find(candidate domain.Event, events []domain.Event) []domain.Event {
	found := make([]domain.Event, 0)
	for _, ev := range events {
		if candidate.ID != "" && ev.ID == candidate.ID {
			continue
		}
		if ev.Date != candidate.Date {
			continue
		}
		// Fixed-width HH:MM makes string order time order.
		if candidate.StartTime < ev.EndTime && ev.StartTime < candidate.EndTime {
			found = append(found, ev)
		}
	}
	return found
}
