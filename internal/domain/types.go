package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used throughout: no time-of-day,
// no timezone.
const DateLayout = "2006-01-02"

// TimeLayout is the time-of-day format. Fixed-width, so lexicographic
// comparison of two values matches chronological order.
const TimeLayout = "15:04"

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryFamily   Category = "family"
	CategoryOther    Category = "other"
)

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// RepeatRule describes how an event recurs. Interval is meaningful only
// when Type is not RepeatNone. EndDate, when set, is an inclusive bound.
type RepeatRule struct {
	Type     RepeatType `json:"type"`
	Interval int        `json:"interval"`
	EndDate  string     `json:"endDate,omitempty"`
}

// Event is a single dated calendar entry. Recurring events are materialized:
// every occurrence is its own Event record, tied together by SeriesID.
// An empty ID marks a draft that has not been persisted yet.
type Event struct {
	ID               string     `json:"id,omitempty"`
	Title            string     `json:"title"`
	Date             string     `json:"date"`
	StartTime        string     `json:"startTime"`
	EndTime          string     `json:"endTime"`
	Description      string     `json:"description,omitempty"`
	Location         string     `json:"location,omitempty"`
	Category         Category   `json:"category,omitempty"`
	Repeat           RepeatRule `json:"repeat"`
	NotificationTime int        `json:"notificationTime"`
	SeriesID         string     `json:"seriesId,omitempty"`
}

// Recurring reports whether the event belongs to a recurrence series.
func (e Event) Recurring() bool {
	return e.Repeat.Type != RepeatNone && e.Repeat.Type != "" && e.Repeat.Interval > 0
}

// StartAt resolves the event's date and start time into a local timestamp.
func (e Event) StartAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.StartTime, time.Local)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

// Validate checks the invariants every event must hold before it reaches
// the store: required fields present, date and times well formed, start
// strictly before end, and a sane repeat rule.
func (e Event) Validate() error {
	if e.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if e.Date == "" {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "is not a valid calendar date"}
	}
	if err := validTimeOfDay("startTime", e.StartTime); err != nil {
		return err
	}
	if err := validTimeOfDay("endTime", e.EndTime); err != nil {
		return err
	}
	if e.StartTime >= e.EndTime {
		return &ValidationError{Field: "startTime", Reason: "must be before endTime"}
	}
	if e.Repeat.Type != "" && e.Repeat.Type != RepeatNone {
		switch e.Repeat.Type {
		case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		default:
			return &ValidationError{Field: "repeat.type", Reason: "is not a known repeat type"}
		}
		if e.Repeat.Interval < 1 {
			return &ValidationError{Field: "repeat.interval", Reason: "must be at least 1"}
		}
		if e.Repeat.EndDate != "" {
			if _, err := time.Parse(DateLayout, e.Repeat.EndDate); err != nil {
				return &ValidationError{Field: "repeat.endDate", Reason: "is not a valid calendar date"}
			}
		}
	}
	return nil
}

func validTimeOfDay(field, v string) error {
	if v == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if len(v) != 5 {
		return &ValidationError{Field: field, Reason: "is not a valid HH:MM time"}
	}
	if _, err := time.Parse(TimeLayout, v); err != nil {
		return &ValidationError{Field: field, Reason: "is not a valid HH:MM time"}
	}
	return nil
}
