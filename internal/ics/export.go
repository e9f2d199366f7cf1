// Package ics renders the event set as an iCalendar document. Materialized
// series collapse back to their anchor carrying an RRULE, so importing
// calendars see one recurring event instead of N copies.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/ljungman/calendard/internal/domain"
	"github.com/ljungman/calendard/internal/series"
)

// Encode writes events as a VCALENDAR.
func Encode(w io.Writer, events []domain.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calendard//calendard//EN")

	ix := series.BuildIndex(events)
	exported := make(map[string]bool)

	for _, ev := range events {
		if ev.SeriesID != "" {
			if exported[ev.SeriesID] {
				continue
			}
			exported[ev.SeriesID] = true
			ev = anchorOf(ix.Members(ev.SeriesID))
		}
		comp, err := eventComponent(ev)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, comp)
	}
	return ical.NewEncoder(w).Encode(cal)
}

// anchorOf picks the earliest occurrence of a series as its representative.
func anchorOf(members []domain.Event) domain.Event {
	anchor := members[0]
	for _, m := range members[1:] {
		if m.Date < anchor.Date {
			anchor = m
		}
	}
	return anchor
}

func eventComponent(ev domain.Event) (*ical.Component, error) {
	start, err := ev.StartAt()
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", ev.ID, err)
	}
	end, err := time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, ev.Date+" "+ev.EndTime, time.Local)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", ev.ID, err)
	}

	out := ical.NewEvent()
	out.Props.SetText(ical.PropUID, ev.ID)
	out.Props.SetText(ical.PropSummary, ev.Title)
	out.Props.SetDateTime(ical.PropDateTimeStamp, time.Now())
	out.Props.SetDateTime(ical.PropDateTimeStart, start)
	out.Props.SetDateTime(ical.PropDateTimeEnd, end)
	if ev.Description != "" {
		out.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		out.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.Category != "" {
		out.Props.SetText(ical.PropCategories, string(ev.Category))
	}
	if rule := ruleString(ev.Repeat); rule != "" {
		out.Props.SetText(ical.PropRecurrenceRule, rule)
	}
	return out.Component, nil
}

func ruleString(rule domain.RepeatRule) string {
	var freq string
	switch rule.Type {
	case domain.RepeatDaily:
		freq = "DAILY"
	case domain.RepeatWeekly:
		freq = "WEEKLY"
	case domain.RepeatMonthly:
		freq = "MONTHLY"
	case domain.RepeatYearly:
		freq = "YEARLY"
	default:
		return ""
	}
	parts := []string{"FREQ=" + freq}
	if rule.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", rule.Interval))
	}
	if rule.EndDate != "" {
		if until, err := time.Parse(domain.DateLayout, rule.EndDate); err == nil {
			parts = append(parts, "UNTIL="+until.Format("20060102"))
		}
	}
	return strings.Join(parts, ";")
}
