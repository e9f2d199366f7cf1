// Package engine is the entry point for every event mutation. Create,
// update, delete, and drag-move all flow through one Request pipeline that
// runs validation, overlap detection, recurrence expansion, and series
// scoping in a fixed order before anything reaches the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ljungman/calendard/internal/domain"
	"github.com/ljungman/calendard/internal/overlap"
	"github.com/ljungman/calendard/internal/recur"
	"github.com/ljungman/calendard/internal/series"
	"github.com/ljungman/calendard/internal/store"
)

// ErrSeriesMoveUnsupported rejects drag-moves applied to a whole series:
// a single date shift has no uniform meaning across occurrences.
var ErrSeriesMoveUnsupported = errors.New("moving a whole series is not supported")

// OverlapError is a decision point, not a failure: the mutation would
// collide with the listed events, and the caller must either abandon it or
// re-submit with Force set.
type OverlapError struct {
	Overlaps []domain.Event
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%d overlapping events", len(e.Overlaps))
}

// ScopeRequiredError asks the caller to choose between single-instance and
// whole-series before a recurring event is mutated.
type ScopeRequiredError struct {
	Event domain.Event
}

func (e *ScopeRequiredError) Error() string {
	return fmt.Sprintf("event %q is recurring: a scope is required", e.Event.ID)
}

type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
	OpMove
)

// Request is the single tagged mutation payload. Draft carries create and
// update payloads; ID and Date drive delete and move; Scope and Force are
// the caller's answers to ScopeRequiredError and OverlapError.
type Request struct {
	Op    Op
	Draft domain.Event
	ID    string
	Date  string
	Scope series.Scope
	Force bool
}

type Options struct {
	Store   store.Store
	Logger  *slog.Logger
	Horizon string
}

type Engine struct {
	store   store.Store
	log     *slog.Logger
	horizon string
	events  []domain.Event
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	horizon := opts.Horizon
	if horizon == "" {
		horizon = recur.DefaultHorizon
	}
	return &Engine{store: opts.Store, log: logger, horizon: horizon}
}

// Refresh replaces the in-memory event list with the store's authoritative
// one. It runs after every successful write; on store failure the stale
// list is kept and the caller is expected to retry.
func (e *Engine) Refresh(ctx context.Context) error {
	events, err := e.store.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	e.events = events
	return nil
}

// Events exposes the current list. Callers treat it as read-only.
func (e *Engine) Events() []domain.Event {
	return e.events
}

// Find looks an event up in the current list by id.
func (e *Engine) Find(id string) (domain.Event, bool) {
	for _, ev := range e.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return domain.Event{}, false
}

// Apply dispatches one mutation request and returns the events it
// persisted. Decision errors (OverlapError, ScopeRequiredError) report an
// unresolved choice; everything else is a real failure.
func (e *Engine) Apply(ctx context.Context, req Request) ([]domain.Event, error) {
	switch req.Op {
	case OpCreate:
		return e.create(ctx, req)
	case OpUpdate:
		return e.update(ctx, req)
	case OpDelete:
		return nil, e.delete(ctx, req)
	case OpMove:
		return e.move(ctx, req)
	default:
		return nil, fmt.Errorf("unknown operation %d", req.Op)
	}
}

func (e *Engine) create(ctx context.Context, req Request) ([]domain.Event, error) {
	draft := req.Draft
	draft.ID = ""
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if draft.Recurring() {
		return e.createSeries(ctx, draft)
	}

	if !req.Force {
		if hits := overlap.Find(draft, e.events); len(hits) > 0 {
			return nil, &OverlapError{Overlaps: hits}
		}
	}
	saved, err := e.store.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	e.log.Info("event created", "id", saved.ID, "date", saved.Date)
	return []domain.Event{saved}, e.Refresh(ctx)
}

// createSeries materializes every occurrence of a recurring draft under a
// fresh shared series id. Creation is best-effort: occurrences persisted
// before a failure are not rolled back.
func (e *Engine) createSeries(ctx context.Context, draft domain.Event) ([]domain.Event, error) {
	seriesID := uuid.NewString()
	created := make([]domain.Event, 0)
	for inst := range recur.ExpandUntil(draft, e.horizon) {
		inst.SeriesID = seriesID
		saved, err := e.store.Create(ctx, inst)
		if err != nil {
			e.log.Error("series creation interrupted",
				"series", seriesID, "persisted", len(created), "err", err)
			return created, fmt.Errorf("create occurrence %s: %w", inst.Date, err)
		}
		created = append(created, saved)
	}
	e.log.Info("series created", "series", seriesID, "occurrences", len(created))
	return created, e.Refresh(ctx)
}

func (e *Engine) update(ctx context.Context, req Request) ([]domain.Event, error) {
	draft := req.Draft
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	current, ok := e.Find(draft.ID)
	if !ok {
		return nil, fmt.Errorf("update %q: %w", draft.ID, store.ErrNotFound)
	}

	if !req.Force {
		if hits := overlap.Find(draft, e.events); len(hits) > 0 {
			return nil, &OverlapError{Overlaps: hits}
		}
	}

	if current.Recurring() {
		if req.Scope == series.ScopeUnset {
			return nil, &ScopeRequiredError{Event: current}
		}
		return e.persistEdit(ctx, series.ApplyEdit(draft, req.Scope, e.seriesMembers(current)))
	}

	saved, err := e.store.Update(ctx, draft.ID, draft)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	e.log.Info("event updated", "id", saved.ID)
	return []domain.Event{saved}, e.Refresh(ctx)
}

func (e *Engine) delete(ctx context.Context, req Request) error {
	current, ok := e.Find(req.ID)
	if !ok {
		return fmt.Errorf("delete %q: %w", req.ID, store.ErrNotFound)
	}
	scope := req.Scope
	if current.Recurring() {
		if scope == series.ScopeUnset {
			return &ScopeRequiredError{Event: current}
		}
	} else {
		scope = series.ScopeSingle
	}
	for _, id := range series.ApplyDelete(current, scope, e.seriesMembers(current)) {
		if err := e.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete event %q: %w", id, err)
		}
	}
	e.log.Info("event deleted", "id", req.ID, "scope", scope.String())
	return e.Refresh(ctx)
}

func (e *Engine) move(ctx context.Context, req Request) ([]domain.Event, error) {
	current, ok := e.Find(req.ID)
	if !ok {
		return nil, fmt.Errorf("move %q: %w", req.ID, store.ErrNotFound)
	}
	if req.Date == current.Date {
		return []domain.Event{current}, nil
	}
	// Only the date changes on a move; times, title, and everything else
	// travel with the event.
	moved := current
	moved.Date = req.Date

	if current.Recurring() {
		switch req.Scope {
		case series.ScopeUnset:
			return nil, &ScopeRequiredError{Event: current}
		case series.ScopeWhole:
			return nil, ErrSeriesMoveUnsupported
		}
		detached := series.Detach(moved)
		saved, err := e.store.Update(ctx, detached.ID, detached)
		if err != nil {
			return nil, fmt.Errorf("move event: %w", err)
		}
		e.log.Info("event moved and detached", "id", saved.ID, "date", saved.Date)
		return []domain.Event{saved}, e.Refresh(ctx)
	}

	if !req.Force {
		if hits := overlap.Find(moved, e.events); len(hits) > 0 {
			return nil, &OverlapError{Overlaps: hits}
		}
	}
	saved, err := e.store.Update(ctx, moved.ID, moved)
	if err != nil {
		return nil, fmt.Errorf("move event: %w", err)
	}
	e.log.Info("event moved", "id", saved.ID, "date", saved.Date)
	return []domain.Event{saved}, e.Refresh(ctx)
}

// persistEdit writes each computed instance back through the store.
func (e *Engine) persistEdit(ctx context.Context, updates []domain.Event) ([]domain.Event, error) {
	saved := make([]domain.Event, 0, len(updates))
	for _, u := range updates {
		out, err := e.store.Update(ctx, u.ID, u)
		if err != nil {
			return saved, fmt.Errorf("update event %q: %w", u.ID, err)
		}
		saved = append(saved, out)
	}
	return saved, e.Refresh(ctx)
}

// seriesMembers resolves the instances an edit or delete of ev may touch.
// Membership comes from the series index over the current list; an event
// without a series id stands alone.
func (e *Engine) seriesMembers(ev domain.Event) []domain.Event {
	if ev.SeriesID != "" {
		if members := series.BuildIndex(e.events).Members(ev.SeriesID); len(members) > 0 {
			return members
		}
	}
	return []domain.Event{ev}
}
