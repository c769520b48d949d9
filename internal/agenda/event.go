// Package agenda defines the workshop event model shared across subsystems.
package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Date is a civil date. It marshals as "YYYY-MM-DD", the shape used in
// events.json.
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as a bare ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Event is a single upcoming workshop entry. The JSON field names match
// the committed events.json artifact.
type Event struct {
	Date     Date   `json:"date"`
	Workshop string `json:"ws"`
	Info     string `json:"info"`
}

// Sort orders events by date, then workshop, then info. A stable order
// keeps the rendered artifacts byte-identical when nothing changed.
func Sort(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date.Time) {
			return events[i].Date.Before(events[j].Date.Time)
		}
		if events[i].Workshop != events[j].Workshop {
			return events[i].Workshop < events[j].Workshop
		}
		return events[i].Info < events[j].Info
	})
}
