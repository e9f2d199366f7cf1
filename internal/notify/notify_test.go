package notify

import (
	"testing"
	"time"

	"github.com/ljungman/calendard/internal/domain"
)

func reminderEvent(id string, start time.Time, lead int) domain.Event {
	return domain.Event{
		ID:               id,
		Title:            "dentist",
		Date:             start.Format(domain.DateLayout),
		StartTime:        start.Format(domain.TimeLayout),
		EndTime:          start.Add(time.Hour).Format(domain.TimeLayout),
		NotificationTime: lead,
	}
}

func TestDueWindow(t *testing.T) {
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.Local)
	cases := []struct {
		name  string
		start time.Time
		lead  int
		want  bool
	}{
		{"inside window", now.Add(5 * time.Minute), 10, true},
		{"exactly at lead", now.Add(10 * time.Minute), 10, true},
		{"too early", now.Add(11 * time.Minute), 10, false},
		{"already started", now.Add(-1 * time.Minute), 10, false},
		{"no lead configured", now.Add(5 * time.Minute), 0, false},
	}
	for _, c := range cases {
		if got := Due(reminderEvent("e", c.start, c.lead), now); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestScanNotifiesOnce(t *testing.T) {
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.Local)
	events := []domain.Event{
		reminderEvent("due", now.Add(5*time.Minute), 10),
		reminderEvent("later", now.Add(2*time.Hour), 10),
	}

	var fired []string
	s := NewScanner(Options{
		Source: func() []domain.Event { return events },
		Notify: func(ev domain.Event) { fired = append(fired, ev.ID) },
	})

	s.Scan(now)
	s.Scan(now.Add(time.Minute))
	if len(fired) != 1 || fired[0] != "due" {
		t.Fatalf("expected exactly one notification for 'due', got %v", fired)
	}

	// The second event crosses into its window later.
	s.Scan(now.Add(2*time.Hour - 5*time.Minute))
	if len(fired) != 2 || fired[1] != "later" {
		t.Fatalf("expected 'later' to fire, got %v", fired)
	}
}
