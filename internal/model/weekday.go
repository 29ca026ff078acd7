package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Weekday is a lower-case weekday token such as "monday".
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// AllWeekdays lists the week starting on Monday.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayAliases = map[string]Weekday{
	"mon": Monday, "tue": Tuesday, "wed": Wednesday, "thu": Thursday,
	"fri": Friday, "sat": Saturday, "sun": Sunday,
}

// ParseWeekday accepts full names or three-letter abbreviations in any case.
func ParseWeekday(s string) (Weekday, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for _, d := range AllWeekdays {
		if token == string(d) {
			return d, nil
		}
	}
	if d, ok := weekdayAliases[token]; ok {
		return d, nil
	}
	return "", fmt.Errorf("invalid weekday %q", s)
}

// Index returns 0 for Monday through 6 for Sunday, or -1 for unknown tokens.
func (d Weekday) Index() int {
	for i, w := range AllWeekdays {
		if w == d {
			return i
		}
	}
	return -1
}

func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	w, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = w
	return nil
}

// Weekdays is a set of weekday tokens kept in week order without duplicates.
// It is stored as a Postgres text[].
type Weekdays []Weekday

// NewWeekdays normalizes, de-duplicates and orders the given tokens.
func NewWeekdays(tokens ...string) (Weekdays, error) {
	days := make(Weekdays, 0, len(tokens))
	for _, t := range tokens {
		d, err := ParseWeekday(t)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days.Normalize(), nil
}

// Normalize returns the days in week order with duplicates and unknown tokens removed.
func (ds Weekdays) Normalize() Weekdays {
	var seen [7]bool
	for _, d := range ds {
		if i := d.Index(); i >= 0 {
			seen[i] = true
		}
	}
	out := make(Weekdays, 0, len(ds))
	for i, ok := range seen {
		if ok {
			out = append(out, AllWeekdays[i])
		}
	}
	return out
}

func (ds Weekdays) Contains(day Weekday) bool {
	for _, d := range ds {
		if d == day {
			return true
		}
	}
	return false
}

// Intersect returns the days present in both sets, in week order.
func (ds Weekdays) Intersect(other Weekdays) Weekdays {
	var common Weekdays
	for _, d := range AllWeekdays {
		if ds.Contains(d) && other.Contains(d) {
			common = append(common, d)
		}
	}
	return common
}

func (ds Weekdays) Value() (driver.Value, error) {
	arr := make(pq.StringArray, len(ds))
	for i, d := range ds {
		arr[i] = string(d)
	}
	return arr.Value()
}

func (ds *Weekdays) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan weekdays: %w", err)
	}
	days := make(Weekdays, 0, len(arr))
	for _, s := range arr {
		d, err := ParseWeekday(s)
		if err != nil {
			return err
		}
		days = append(days, d)
	}
	*ds = days
	return nil
}
