// Package drag reconciles a drag-and-drop date change against overlap and
// recurrence rules before it becomes a mutation. One Controller tracks one
// gesture at a time: a drop either applies immediately, parks in a decision
// state waiting for the user, or is rejected silently.
package drag

import (
	"context"
	"errors"

	"github.com/ljungman/calendard/internal/domain"
	"github.com/ljungman/calendard/internal/engine"
	"github.com/ljungman/calendard/internal/overlap"
	"github.com/ljungman/calendard/internal/series"
	"github.com/ljungman/calendard/internal/store"
)

// ErrMoveInFlight rejects a new drop while a previous gesture still waits
// on a decision.
var ErrMoveInFlight = errors.New("a move is already awaiting a decision")

type State int

const (
	StateIdle State = iota
	// StateScopeDecision holds a recurring event's pending date until the
	// user picks single-instance or whole-series.
	StateScopeDecision
	// StateOverlapDecision holds a pending date that collides with other
	// events until the user confirms or cancels.
	StateOverlapDecision
)

type Outcome int

const (
	// OutcomeRejected: nothing changed and nothing is pending; the event
	// stays at its original date.
	OutcomeRejected Outcome = iota
	OutcomeApplied
	OutcomeScopeDecision
	OutcomeOverlapDecision
)

type Controller struct {
	engine *engine.Engine
	state  State

	pendingID   string
	pendingDate string
	overlaps    []domain.Event
}

func NewController(eng *engine.Engine) *Controller {
	return &Controller{engine: eng}
}

func (c *Controller) State() State { return c.state }

// PendingOverlaps exposes the collisions found for the gesture currently
// waiting in StateOverlapDecision.
func (c *Controller) PendingOverlaps() []domain.Event { return c.overlaps }

// Drop handles the end of a drag gesture. Drops that change nothing or land
// outside the visible range are rejected silently. Recurring events park in
// a scope decision before anything is mutated; non-recurring events either
// apply immediately or park in an overlap decision.
func (c *Controller) Drop(ctx context.Context, eventID, newDate string, view View, viewDate string) (Outcome, error) {
	if c.state != StateIdle {
		return OutcomeRejected, ErrMoveInFlight
	}
	ev, ok := c.engine.Find(eventID)
	if !ok {
		return OutcomeRejected, store.ErrNotFound
	}
	if newDate == ev.Date {
		return OutcomeRejected, nil
	}
	if !InRange(view, viewDate, newDate) {
		return OutcomeRejected, nil
	}

	if ev.Recurring() {
		c.state = StateScopeDecision
		c.pendingID = eventID
		c.pendingDate = newDate
		return OutcomeScopeDecision, nil
	}

	moved := ev
	moved.Date = newDate
	if hits := overlap.Find(moved, c.engine.Events()); len(hits) > 0 {
		c.state = StateOverlapDecision
		c.pendingID = eventID
		c.pendingDate = newDate
		c.overlaps = hits
		return OutcomeOverlapDecision, nil
	}

	return c.apply(ctx, engine.Request{Op: engine.OpMove, ID: eventID, Date: newDate})
}

// ConfirmScope resolves a pending scope decision. Single-instance detaches
// the occurrence at its new date; whole-series moves are not supported and
// leave the event where it was.
func (c *Controller) ConfirmScope(ctx context.Context, scope series.Scope) (Outcome, error) {
	if c.state != StateScopeDecision {
		return OutcomeRejected, errors.New("no scope decision pending")
	}
	if scope != series.ScopeSingle {
		c.reset()
		return OutcomeRejected, engine.ErrSeriesMoveUnsupported
	}
	return c.apply(ctx, engine.Request{
		Op:    engine.OpMove,
		ID:    c.pendingID,
		Date:  c.pendingDate,
		Scope: series.ScopeSingle,
	})
}

// ConfirmOverlap applies a pending move despite the reported collisions.
func (c *Controller) ConfirmOverlap(ctx context.Context) (Outcome, error) {
	if c.state != StateOverlapDecision {
		return OutcomeRejected, errors.New("no overlap decision pending")
	}
	return c.apply(ctx, engine.Request{
		Op:    engine.OpMove,
		ID:    c.pendingID,
		Date:  c.pendingDate,
		Force: true,
	})
}

// Cancel abandons the pending gesture; the event keeps its original date.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) apply(ctx context.Context, req engine.Request) (Outcome, error) {
	_, err := c.engine.Apply(ctx, req)
	c.reset()
	if err != nil {
		return OutcomeRejected, err
	}
	return OutcomeApplied, nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.pendingID = ""
	c.pendingDate = ""
	c.overlaps = nil
}
