package recur

import (
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ljungman/calendard/internal/domain"
)

// DefaultHorizon bounds expansion of rules that carry no end date, keeping
// every sequence finite.
const DefaultHorizon = "2027-12-31"

// maxOccurrences is a safety cap against degenerate rules producing huge
// series even inside the horizon.
const maxOccurrences = 1000

// Expand materializes a recurring anchor into its concrete occurrences,
// bounded by the rule's end date or DefaultHorizon.
func Expand(anchor domain.Event) iter.Seq[domain.Event] {
	return ExpandUntil(anchor, DefaultHorizon)
}

// ExpandUntil is Expand with an explicit horizon for rules without an end
// date. The sequence is lazy and restartable; iterating it twice yields the
// same occurrences. The first element is always the anchor itself. Every
// element carries the anchor's times, rule, and other fields, with a blank
// id: identity is assigned at persistence, not here.
//
// Stepping follows the calendar, skipping rather than clamping: a monthly
// rule anchored on day 31 contributes nothing to a 30-day month, and a
// yearly rule anchored on Feb 29 skips non-leap years. rrule-go implements
// exactly that semantics when the day-of-month is taken from DTSTART.
func ExpandUntil(anchor domain.Event, horizon string) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		freq, ok := freqFor(anchor.Repeat.Type)
		if !ok {
			yield(anchor)
			return
		}

		start, err := time.ParseInLocation(domain.DateLayout, anchor.Date, time.UTC)
		if err != nil {
			return
		}
		bound := anchor.Repeat.EndDate
		if bound == "" {
			bound = horizon
		}
		until, err := time.ParseInLocation(domain.DateLayout, bound, time.UTC)
		if err != nil {
			return
		}
		interval := anchor.Repeat.Interval
		if interval < 1 {
			interval = 1
		}

		// Until is inclusive: an occurrence landing exactly on the end
		// date is generated.
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:     freq,
			Interval: interval,
			Dtstart:  start,
			Until:    until,
		})
		if err != nil {
			return
		}

		next := rule.Iterator()
		for n := 0; n < maxOccurrences; n++ {
			t, ok := next()
			if !ok {
				return
			}
			inst := anchor
			if n > 0 {
				inst.ID = ""
				inst.Date = t.Format(domain.DateLayout)
			}
			if !yield(inst) {
				return
			}
		}
	}
}

func freqFor(t domain.RepeatType) (rrule.Frequency, bool) {
	switch t {
	case domain.RepeatDaily:
		return rrule.DAILY, true
	case domain.RepeatWeekly:
		return rrule.WEEKLY, true
	case domain.RepeatMonthly:
		return rrule.MONTHLY, true
	case domain.RepeatYearly:
		return rrule.YEARLY, true
	default:
		return 0, false
	}
}
