// Package notify periodically scans the event list for reminders coming
// due. The scan is read-only over the list; which events already notified
// is tracked here, never written back.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ljungman/calendard/internal/domain"
)

const defaultInterval = time.Minute

type Scanner struct {
	source   func() []domain.Event
	notify   func(domain.Event)
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
	seen     map[string]struct{}
}

type Options struct {
	// Source returns the current event list on every tick.
	Source func() []domain.Event
	// Notify receives each event exactly once, when it first comes due.
	Notify   func(domain.Event)
	Interval time.Duration
	Logger   *slog.Logger
}

func NewScanner(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(ev domain.Event) {
			logger.Info("reminder due",
				"id", ev.ID, "title", ev.Title, "start", ev.Date+" "+ev.StartTime)
		}
	}
	return &Scanner{
		source:   opts.Source,
		notify:   notify,
		interval: interval,
		log:      logger,
		now:      time.Now,
		seen:     make(map[string]struct{}),
	}
}

// Run scans on a fixed interval until the context is canceled.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Scan(s.now())
		}
	}
}

// Scan fires the notify callback for every event newly due at now.
func (s *Scanner) Scan(now time.Time) {
	for _, ev := range s.source() {
		if _, done := s.seen[ev.ID]; done {
			continue
		}
		if !Due(ev, now) {
			continue
		}
		s.notify(ev)
		s.seen[ev.ID] = struct{}{}
	}
}

// Due reports whether ev's reminder window is open at now: the event has
// not started yet and starts within its notification lead time.
func Due(ev domain.Event, now time.Time) bool {
	if ev.NotificationTime <= 0 {
		return false
	}
	start, err := ev.StartAt()
	if err != nil {
		return false
	}
	until := start.Sub(now)
	return until > 0 && until <= time.Duration(ev.NotificationTime)*time.Minute
}
