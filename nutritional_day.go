package main

import (
	"time"
)

const (
	dateLayout = "2006-01-02"

	// dayBoundaryHour is the local hour at which a nutritional day starts.
	// Anything eaten before it counts toward the previous day.
	dayBoundaryHour = 5
)

// weekdayNames are pt-BR weekday names indexed by time.Weekday.
var weekdayNames = [7]string{
	"Domingo",
	"Segunda-feira",
	"Terça-feira",
	"Quarta-feira",
	"Quinta-feira",
	"Sexta-feira",
	"Sábado",
}

// dayResolver maps instants to nutritional-day keys ("YYYY-MM-DD") and keys
// back to the half-open instant range [start, end) they cover. All calendar
// arithmetic happens in loc.
type dayResolver struct {
	loc *time.Location
}

func newDayResolver(loc *time.Location) dayResolver {
	if loc == nil {
		loc = time.UTC
	}
	return dayResolver{loc: loc}
}

// dayKey returns the nutritional day t belongs to.
func (r dayResolver) dayKey(t time.Time) string {
	local := t.In(r.loc)
	y, m, d := local.Date()
	if local.Hour() < dayBoundaryHour {
		d--
	}
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc).Format(dateLayout)
}

// today returns the current nutritional day.
func (r dayResolver) today() string {
	return r.dayKey(time.Now())
}

// parse validates a key and returns its calendar date at midnight in loc.
func (r dayResolver) parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, key, r.loc)
	if err != nil {
		return time.Time{}, invalid("data inválida, formato esperado AAAA-MM-DD")
	}
	return t, nil
}

// dayRange returns [start, end) for key: 05:00 on the key's date to 05:00 on
// the following calendar date. End is built from the calendar, not start+24h,
// so consecutive days stay gap-free across DST changes.
func (r dayResolver) dayRange(key string) (time.Time, time.Time, error) {
	d, err := r.parse(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, day := d.Date()
	start := time.Date(y, m, day, dayBoundaryHour, 0, 0, 0, r.loc)
	end := time.Date(y, m, day+1, dayBoundaryHour, 0, 0, 0, r.loc)
	return start, end, nil
}

// spanRange returns the instant range covering every day from firstKey to lastKey inclusive.
func (r dayResolver) spanRange(firstKey, lastKey string) (time.Time, time.Time, error) {
	start, _, err := r.dayRange(firstKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	_, end, err := r.dayRange(lastKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// weekStart returns the key of the Sunday on or before key.
func (r dayResolver) weekStart(key string) (string, error) {
	d, err := r.parse(key)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, -int(d.Weekday())).Format(dateLayout), nil
}

// monthWeeks partitions the calendar month containing key into Sunday..Saturday
// buckets. The first bucket may start in the previous month and the last may
// end in the next one, so every bucket is a full week.
func (r dayResolver) monthWeeks(key string) ([][2]string, error) {
	d, err := r.parse(key)
	if err != nil {
		return nil, err
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, r.loc)
	last := first.AddDate(0, 1, -1)

	var weeks [][2]string
	for ws := first.AddDate(0, 0, -int(first.Weekday())); !ws.After(last); ws = ws.AddDate(0, 0, 7) {
		weeks = append(weeks, [2]string{ws.Format(dateLayout), ws.AddDate(0, 0, 6).Format(dateLayout)})
	}
	return weeks, nil
}

// shiftDay returns the key n calendar days after key. key must be valid.
func shiftDay(key string, n int) string {
	t, err := time.Parse(dateLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(dateLayout)
}

// weekdayOf returns the pt-BR weekday name of a valid key.
func weekdayOf(key string) string {
	t, err := time.Parse(dateLayout, key)
	if err != nil {
		return ""
	}
	return weekdayNames[t.Weekday()]
}
