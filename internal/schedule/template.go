package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Civil date/time layouts used across the whole system. All dates and
// times are local civil values; there is no timezone handling anywhere.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// dayLabels maps time.Weekday ordinals (Sunday-first, matching the local
// convention) to the single-character Korean weekday labels used in the
// compact schedule form.
var dayLabels = [7]string{"일", "월", "화", "수", "목", "금", "토"}

var labelToDay = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 7)
	for d, label := range dayLabels {
		m[label] = time.Weekday(d)
	}
	return m
}()

// ErrInvalidClock indicates a time-of-day string that is not HH:MM 24h.
var ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")

// ErrInvalidDate indicates a date string that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Template is a weekly lesson pattern: weekday → lesson time ("HH:MM").
// A weekday with no entry means no lesson on that weekday. The structured
// map is the canonical form all logic operates on; the compact textual
// form ("월 16:00, 수 17:00") exists only at the presentation and import
// boundaries. JSON form uses ordinal keys ("0" = Sunday … "6" = Saturday).
type Template map[time.Weekday]string

// Validate checks every entry holds a well-formed HH:MM time.
func (t Template) Validate() error {
	for day, clock := range t {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("weekday ordinal %d out of range", day)
		}
		if _, err := ParseClock(clock); err != nil {
			return fmt.Errorf("weekday %s: %w", DayLabel(day), err)
		}
	}
	return nil
}

// String renders the compact display form, Sunday-first, e.g.
// "월 16:00, 수 17:00". Empty template renders as "".
func (t Template) String() string {
	parts := make([]string, 0, len(t))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if clock, ok := t[d]; ok {
			parts = append(parts, dayLabels[d]+" "+clock)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseTemplate parses the compact form back into a Template. Used by the
// legacy import path; new writes always carry the structured map.
func ParseTemplate(s string) (Template, error) {
	tpl := Template{}
	s = strings.TrimSpace(s)
	if s == "" {
		return tpl, nil
	}
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed schedule entry %q", strings.TrimSpace(part))
		}
		day, ok := labelToDay[fields[0]]
		if !ok {
			return nil, fmt.Errorf("unknown weekday label %q", fields[0])
		}
		if _, err := ParseClock(fields[1]); err != nil {
			return nil, fmt.Errorf("weekday %s: %w", fields[0], err)
		}
		tpl[day] = fields[1]
	}
	return tpl, nil
}

// DayLabel returns the Korean label for a weekday ordinal.
func DayLabel(d time.Weekday) string {
	return dayLabels[d]
}

// ParseDate parses a civil date string (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseClock parses a time-of-day string (HH:MM, 24h).
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidClock
	}
	return t, nil
}

// AddMinutes shifts a time-of-day string forward, wrapping past midnight.
func AddMinutes(clock string, minutes int) (string, error) {
	t, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(ClockLayout), nil
}
