package drag

import (
	"context"
	"errors"
	"testing"

	"github.com/ljungman/calendard/internal/domain"
	"github.com/ljungman/calendard/internal/engine"
	"github.com/ljungman/calendard/internal/series"
	"github.com/ljungman/calendard/internal/store"
)

func newController(t *testing.T) (*Controller, *engine.Engine) {
	t.Helper()
	eng := engine.New(engine.Options{Store: store.NewMemoryStore()})
	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return NewController(eng), eng
}

func create(t *testing.T, eng *engine.Engine, draft domain.Event) []domain.Event {
	t.Helper()
	out, err := eng.Apply(context.Background(), engine.Request{Op: engine.OpCreate, Draft: draft})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return out
}

func plain(title, date string) domain.Event {
	return domain.Event{Title: title, Date: date, StartTime: "10:00", EndTime: "11:00"}
}

func TestDropAppliesCleanMove(t *testing.T) {
	ctrl, eng := newController(t)
	created := create(t, eng, plain("a", "2025-10-01"))

	outcome, err := ctrl.Drop(context.Background(), created[0].ID, "2025-10-02", ViewWeek, "2025-10-01")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %v", outcome)
	}
	if ev, _ := eng.Find(created[0].ID); ev.Date != "2025-10-02" {
		t.Fatalf("expected new date, got %s", ev.Date)
	}
	if ctrl.State() != StateIdle {
		t.Fatalf("controller must return to idle, got %v", ctrl.State())
	}
}

// Dragging outside the visible week changes nothing, silently.
func TestDropOutsideVisibleRange(t *testing.T) {
	ctrl, eng := newController(t)
	created := create(t, eng, plain("a", "2025-10-01"))

	// 2025-10-01 is a Wednesday; its week ends Saturday 2025-10-04.
	outcome, err := ctrl.Drop(context.Background(), created[0].ID, "2025-10-08", ViewWeek, "2025-10-01")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeRejected {
		t.Fatalf("expected rejection, got %v", outcome)
	}
	if ev, _ := eng.Find(created[0].ID); ev.Date != "2025-10-01" {
		t.Fatalf("event must keep its original date, got %s", ev.Date)
	}
}

func TestDropSameDateRejected(t *testing.T) {
	ctrl, eng := newController(t)
	created := create(t, eng, plain("a", "2025-10-01"))
	outcome, err := ctrl.Drop(context.Background(), created[0].ID, "2025-10-01", ViewWeek, "2025-10-01")
	if err != nil || outcome != OutcomeRejected {
		t.Fatalf("expected silent rejection, got %v err=%v", outcome, err)
	}
}

func TestDropUnknownEvent(t *testing.T) {
	ctrl, _ := newController(t)
	_, err := ctrl.Drop(context.Background(), "missing", "2025-10-02", ViewWeek, "2025-10-01")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDropOverlapDecisionConfirm(t *testing.T) {
	ctrl, eng := newController(t)
	create(t, eng, plain("blocker", "2025-10-02"))
	created := create(t, eng, plain("a", "2025-10-01"))

	outcome, err := ctrl.Drop(context.Background(), created[0].ID, "2025-10-02", ViewWeek, "2025-10-01")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeOverlapDecision {
		t.Fatalf("expected overlap decision, got %v", outcome)
	}
	if hits := ctrl.PendingOverlaps(); len(hits) != 1 || hits[0].Title != "blocker" {
		t.Fatalf("unexpected pending overlaps: %+v", hits)
	}

	// "Continue anyway" persists the move despite the overlap.
	outcome, err = ctrl.ConfirmOverlap(context.Background())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %v", outcome)
	}
	if ev, _ := eng.Find(created[0].ID); ev.Date != "2025-10-02" {
		t.Fatalf("expected moved despite overlap, got %s", ev.Date)
	}
}

func TestDropOverlapDecisionCancel(t *testing.T) {
	ctrl, eng := newController(t)
	create(t, eng, plain("blocker", "2025-10-02"))
	created := create(t, eng, plain("a", "2025-10-01"))

	if outcome, _ := ctrl.Drop(context.Background(), created[0].ID, "2025-10-02", ViewWeek, "2025-10-01"); outcome != OutcomeOverlapDecision {
		t.Fatalf("expected overlap decision, got %v", outcome)
	}
	ctrl.Cancel()
	if ctrl.State() != StateIdle {
		t.Fatalf("expected idle after cancel, got %v", ctrl.State())
	}
	if ev, _ := eng.Find(created[0].ID); ev.Date != "2025-10-01" {
		t.Fatalf("cancel must revert to the original date, got %s", ev.Date)
	}
}

func TestDropRecurringSingleInstance(t *testing.T) {
	ctrl, eng := newController(t)
	d := domain.Event{
		Title: "standup", Date: "2025-10-01", StartTime: "09:00", EndTime: "09:30",
		Repeat: domain.RepeatRule{Type: domain.RepeatDaily, Interval: 1, EndDate: "2025-10-03"},
	}
	created := create(t, eng, d)

	outcome, err := ctrl.Drop(context.Background(), created[1].ID, "2025-10-04", ViewWeek, "2025-10-01")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeScopeDecision {
		t.Fatalf("recurring drag must ask for a scope first, got %v", outcome)
	}
	// Nothing is mutated while the decision is pending.
	if ev, _ := eng.Find(created[1].ID); ev.Date != "2025-10-02" {
		t.Fatalf("pending decision must not mutate, got %s", ev.Date)
	}

	outcome, err = ctrl.ConfirmScope(context.Background(), series.ScopeSingle)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %v", outcome)
	}
	moved, _ := eng.Find(created[1].ID)
	if moved.Date != "2025-10-04" || moved.Repeat.Type != domain.RepeatNone || moved.SeriesID != "" {
		t.Fatalf("expected detached event at new date, got %+v", moved)
	}
	for _, id := range []string{created[0].ID, created[2].ID} {
		ev, _ := eng.Find(id)
		if ev.SeriesID == "" || ev.Date == "2025-10-04" {
			t.Fatalf("sibling instance changed: %+v", ev)
		}
	}
}

func TestDropRecurringWholeSeriesRejected(t *testing.T) {
	ctrl, eng := newController(t)
	d := domain.Event{
		Title: "standup", Date: "2025-10-01", StartTime: "09:00", EndTime: "09:30",
		Repeat: domain.RepeatRule{Type: domain.RepeatDaily, Interval: 1, EndDate: "2025-10-03"},
	}
	created := create(t, eng, d)

	if outcome, _ := ctrl.Drop(context.Background(), created[0].ID, "2025-10-04", ViewWeek, "2025-10-01"); outcome != OutcomeScopeDecision {
		t.Fatalf("expected scope decision, got %v", outcome)
	}
	_, err := ctrl.ConfirmScope(context.Background(), series.ScopeWhole)
	if !errors.Is(err, engine.ErrSeriesMoveUnsupported) {
		t.Fatalf("expected series move rejection, got %v", err)
	}
	if ctrl.State() != StateIdle {
		t.Fatalf("expected idle after rejection, got %v", ctrl.State())
	}
	if ev, _ := eng.Find(created[0].ID); ev.Date != "2025-10-01" {
		t.Fatalf("event must keep its original date, got %s", ev.Date)
	}
}

func TestDropWhileDecisionPending(t *testing.T) {
	ctrl, eng := newController(t)
	create(t, eng, plain("blocker", "2025-10-02"))
	created := create(t, eng, plain("a", "2025-10-01"))

	if outcome, _ := ctrl.Drop(context.Background(), created[0].ID, "2025-10-02", ViewWeek, "2025-10-01"); outcome != OutcomeOverlapDecision {
		t.Fatal("expected overlap decision")
	}
	if _, err := ctrl.Drop(context.Background(), created[0].ID, "2025-10-03", ViewWeek, "2025-10-01"); !errors.Is(err, ErrMoveInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
}

func TestConfirmWithoutPendingDecision(t *testing.T) {
	ctrl, _ := newController(t)
	if _, err := ctrl.ConfirmScope(context.Background(), series.ScopeSingle); err == nil {
		t.Fatal("expected error without pending scope decision")
	}
	if _, err := ctrl.ConfirmOverlap(context.Background()); err == nil {
		t.Fatal("expected error without pending overlap decision")
	}
}

func TestInRange(t *testing.T) {
	cases := []struct {
		view     View
		viewDate string
		target   string
		want     bool
	}{
		// 2025-10-01 is a Wednesday: week is Sun 2025-09-28 .. Sat 2025-10-04.
		{ViewWeek, "2025-10-01", "2025-09-28", true},
		{ViewWeek, "2025-10-01", "2025-10-04", true},
		{ViewWeek, "2025-10-01", "2025-09-27", false},
		{ViewWeek, "2025-10-01", "2025-10-05", false},
		{ViewMonth, "2025-10-15", "2025-10-01", true},
		{ViewMonth, "2025-10-15", "2025-10-31", true},
		{ViewMonth, "2025-10-15", "2025-11-01", false},
		{ViewMonth, "2025-10-15", "2024-10-15", false},
		{ViewWeek, "bogus", "2025-10-01", false},
		{ViewWeek, "2025-10-01", "bogus", false},
	}
	for i, c := range cases {
		if got := InRange(c.view, c.viewDate, c.target); got != c.want {
			t.Fatalf("case %d (%s in view of %s): got %v want %v", i, c.target, c.viewDate, got, c.want)
		}
	}
}
