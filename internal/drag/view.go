package drag

import (
	"time"

	"github.com/ljungman/calendard/internal/domain"
)

// View is the calendar range currently on screen; drops outside it are
// rejected.
type View int

const (
	ViewWeek View = iota
	ViewMonth
)

// ParseView maps the wire form ("week", "month") to a View.
func ParseView(v string) (View, bool) {
	switch v {
	case "week", "":
		return ViewWeek, true
	case "month":
		return ViewMonth, true
	default:
		return ViewWeek, false
	}
}

// InRange reports whether target falls inside the view containing viewDate:
// the Sunday-through-Saturday week for ViewWeek, the calendar month for
// ViewMonth. Unparseable dates are out of range.
func InRange(view View, viewDate, target string) bool {
	vt, err := time.Parse(domain.DateLayout, viewDate)
	if err != nil {
		return false
	}
	tt, err := time.Parse(domain.DateLayout, target)
	if err != nil {
		return false
	}
	switch view {
	case ViewMonth:
		return vt.Year() == tt.Year() && vt.Month() == tt.Month()
	default:
		weekStart := vt.AddDate(0, 0, -int(vt.Weekday()))
		weekEnd := weekStart.AddDate(0, 0, 6)
		return !tt.Before(weekStart) && !tt.After(weekEnd)
	}
}
