// Package civiltime converts civil (zone-less) fixture dates and 12-hour
// kickoff times into absolute instants for an explicit location, and renders
// civil dates for display. Nothing here reads time.Local.
package civiltime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embedded zoneinfo keeps instants identical across hosts.
	_ "time/tzdata"
)

// DateLayout defines the canonical civil date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ArrivalLead is how long before kickoff players are expected on site.
const ArrivalLead = 30 * time.Minute

const (
	FieldDate     = "date"
	FieldTime     = "time"
	FieldTimezone = "timezone"
)

// ValidationError reports malformed date or time input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Date is a calendar day with no attached offset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.julian() < other.julian()
}

// DaysBetween returns the absolute number of days separating a and b.
func DaysBetween(a, b Date) int {
	diff := a.julian() - b.julian()
	if diff < 0 {
		return -diff
	}
	return diff
}

func (d Date) julian() int {
	return int(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func (d Date) weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// Clock is a wall-clock time of day in 24-hour form.
type Clock struct {
	Hour   int
	Minute int
}

// String renders the 12-hour display form, e.g. "2:15 PM".
func (c Clock) String() string {
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	display := c.Hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, c.Minute, suffix)
}

// ParseDate parses an exact numeric YYYY-MM-DD triple that names a real day.
func ParseDate(value string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 {
		return Date{}, &ValidationError{Field: FieldDate, Value: value, Reason: "expected YYYY-MM-DD"}
	}

	nums := make([]int, 3)
	for i, part := range parts {
		if part == "" || !isDigits(part) {
			return Date{}, &ValidationError{Field: FieldDate, Value: value, Reason: "non-numeric component"}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, &ValidationError{Field: FieldDate, Value: value, Reason: "non-numeric component"}
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	if !d.valid() {
		return Date{}, &ValidationError{Field: FieldDate, Value: value, Reason: "no such calendar day"}
	}
	return d, nil
}

func (d Date) valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	check := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return check.Day() == d.Day && check.Month() == d.Month
}

// ParseClock parses a 12-hour time such as "2:15 PM" or "10:30 am".
// A trailing zone abbreviation ("2:15 PM PDT") is rejected here; callers
// holding scraped text should run NormalizeClock first.
func ParseClock(value string) (Clock, error) {
	fields := strings.Fields(strings.TrimSpace(value))
	if len(fields) != 2 {
		return Clock{}, &ValidationError{Field: FieldTime, Value: value, Reason: "expected h:mm AM|PM"}
	}

	hm := strings.Split(fields[0], ":")
	if len(hm) != 2 || !isDigits(hm[0]) || len(hm[1]) != 2 || !isDigits(hm[1]) {
		return Clock{}, &ValidationError{Field: FieldTime, Value: value, Reason: "expected h:mm AM|PM"}
	}
	hour, _ := strconv.Atoi(hm[0])
	minute, _ := strconv.Atoi(hm[1])
	if hour < 1 || hour > 12 || minute > 59 {
		return Clock{}, &ValidationError{Field: FieldTime, Value: value, Reason: "hour or minute out of range"}
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return Clock{}, &ValidationError{Field: FieldTime, Value: value, Reason: "missing AM/PM marker"}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// NormalizeClock reduces scraped kickoff text like "2:15 PM PDT" to the
// canonical "2:15 PM" form.
func NormalizeClock(value string) (string, error) {
	fields := strings.Fields(value)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	clock, err := ParseClock(strings.Join(fields, " "))
	if err != nil {
		return "", err
	}
	return clock.String(), nil
}

// LoadLocation resolves an IANA zone name.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: FieldTimezone, Value: name, Reason: "zone is required"}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ValidationError{Field: FieldTimezone, Value: name, Reason: err.Error()}
	}
	return loc, nil
}

// ResolveInstant returns the absolute instant at which the civil date and
// clock occur in loc.
//
// The wall time is first read as if it were UTC, then shifted by the zone
// offset observed at that provisional instant. Near DST transitions the
// offset at the corrected instant can differ from the provisional one, so
// the offset is observed a second time and the correction repeated.
func ResolveInstant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, &ValidationError{Field: FieldTimezone, Value: "", Reason: "zone is required"}
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return resolve(d, c, loc), nil
}

func resolve(d Date, c Clock, loc *time.Location) time.Time {
	provisional := time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, time.UTC)

	_, offset := provisional.In(loc).Zone()
	candidate := provisional.Add(-time.Duration(offset) * time.Second)

	_, corrected := candidate.In(loc).Zone()
	if corrected != offset {
		candidate = provisional.Add(-time.Duration(corrected) * time.Second)
	}

	return candidate.UTC()
}

// CivilDate returns the YYYY-MM-DD label of instant as observed in loc.
func CivilDate(instant time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return instant.In(loc).Format(DateLayout)
}

var (
	shortDays  = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	longDays   = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	shortMonth = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	longMonth  = [...]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
)

// FormatShort renders "Sat, Sep 20".
func FormatShort(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %s %d", shortDays[d.weekday()], shortMonth[d.Month-1], d.Day), nil
}

// FormatLong renders "Saturday, September 20, 2025".
func FormatLong(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %s %d, %d", longDays[d.weekday()], longMonth[d.Month-1], d.Day, d.Year), nil
}

// ArrivalTime returns the clock ArrivalLead before kickoff, wrapping across
// midnight and the AM/PM boundary.
func ArrivalTime(clock string) (string, error) {
	c, err := ParseClock(clock)
	if err != nil {
		return "", err
	}

	const minutesPerDay = 24 * 60
	total := c.Hour*60 + c.Minute - int(ArrivalLead/time.Minute)
	total = ((total % minutesPerDay) + minutesPerDay) % minutesPerDay

	return Clock{Hour: total / 60, Minute: total % 60}.String(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
