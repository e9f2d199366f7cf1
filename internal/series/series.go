// Package series decides which instances of a recurrence series an edit or
// delete touches, and computes the resulting instance set. It is pure: it
// never talks to the store and never re-derives membership beyond what the
// caller supplies.
package series

import "github.com/ljungman/calendard/internal/domain"

// Scope selects how far a mutation of a recurring event reaches.
type Scope int

const (
	// ScopeUnset means the caller has not decided yet; mutations of
	// recurring events are refused until a scope is chosen.
	ScopeUnset Scope = iota
	// ScopeSingle touches only the one occurrence, detaching it from its
	// series.
	ScopeSingle
	// ScopeWhole touches every instance of the series.
	ScopeWhole
)

func (s Scope) String() string {
	switch s {
	case ScopeSingle:
		return "single"
	case ScopeWhole:
		return "whole"
	default:
		return "unset"
	}
}

// ParseScope maps the wire form ("single", "whole") back to a Scope.
func ParseScope(v string) (Scope, bool) {
	switch v {
	case "single":
		return ScopeSingle, true
	case "whole":
		return ScopeWhole, true
	case "":
		return ScopeUnset, true
	default:
		return ScopeUnset, false
	}
}

// Index groups a fetched event list by series id so membership is a lookup,
// not something callers have to assemble by hand.
type Index map[string][]domain.Event

// BuildIndex collects the series members out of events, preserving list
// order within each series.
func BuildIndex(events []domain.Event) Index {
	ix := make(Index)
	for _, ev := range events {
		if ev.SeriesID == "" {
			continue
		}
		ix[ev.SeriesID] = append(ix[ev.SeriesID], ev)
	}
	return ix
}

// Members returns the instances recorded for a series id, nil when unknown.
func (ix Index) Members(seriesID string) []domain.Event {
	return ix[seriesID]
}

// Detach turns one series instance into a standalone non-recurring event.
func Detach(ev domain.Event) domain.Event {
	ev.Repeat = domain.RepeatRule{Type: domain.RepeatNone}
	ev.SeriesID = ""
	return ev
}

// ApplyEdit computes the events to persist for an edit of a recurring
// event. With ScopeSingle only the edited occurrence survives, detached
// from its series regardless of the rule it arrived with. With ScopeWhole
// the edit is applied uniformly to every supplied instance, except the
// date, which stays occurrence-specific. The supplied instance list is
// trusted as-is; whether it is complete is the caller's problem.
func ApplyEdit(edited domain.Event, scope Scope, instances []domain.Event) []domain.Event {
	if scope != ScopeWhole {
		return []domain.Event{Detach(edited)}
	}
	out := make([]domain.Event, 0, len(instances))
	for _, inst := range instances {
		next := edited
		next.ID = inst.ID
		next.Date = inst.Date
		next.SeriesID = inst.SeriesID
		out = append(out, next)
	}
	return out
}

// ApplyDelete computes the ids to remove: just the target for ScopeSingle,
// every supplied instance for ScopeWhole.
func ApplyDelete(target domain.Event, scope Scope, instances []domain.Event) []string {
	if scope != ScopeWhole {
		return []string{target.ID}
	}
	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	return ids
}
