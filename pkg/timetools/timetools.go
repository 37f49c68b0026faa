// Package timetools parses and formats ISO 8601 time stamps and durations
// the way coverage descriptors and request parameters carry them.
package timetools

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISOFormat is the layout Format uses for UTC instants with whole seconds.
const ISOFormat = "2006-01-02T15:04:05Z"

const (
	microLayout  = "2006-01-02T15:04:05.000000"
	secondLayout = "2006-01-02T15:04:05"
)

// layouts accepted by ParseISO8601, fractional seconds included. Values
// without a zone are read as UTC.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO8601 parses a date or date-time. A space may separate date and
// time; a date alone is midnight UTC.
func ParseISO8601(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse '%s' to a temporal value", value)
}

// Format writes t in ISO 8601. A zero UTC offset is written as "Z";
// microseconds appear only when non-zero.
func Format(t time.Time) string {
	micro := t.Nanosecond()/1000 != 0
	if _, offset := t.Zone(); offset == 0 {
		if !micro {
			return t.UTC().Format(ISOFormat)
		}
		return t.UTC().Format(microLayout) + "Z"
	}
	if micro {
		return t.Format(microLayout + "-07:00")
	}
	return t.Format(secondLayout + "-07:00")
}

var durationRegexp = regexp.MustCompile(`^([+-])?P` +
	`(?:(\d+(?:\.\d+)?)Y)?` +
	`(?:(\d+(?:\.\d+)?)M)?` +
	`(?:(\d+(?:\.\d+)?)D)?` +
	`T?(?:(\d+(?:\.\d+)?)H)?` +
	`(?:(\d+(?:\.\d+)?)M)?` +
	`(?:(\d+(?:\.\d+)?)S)?$`)

// nominal lengths of the calendar units
const (
	day   = 24 * 3600.0
	month = 30 * day
	year  = 365 * day
)

// ParseDuration parses an ISO 8601 duration such as "P1DT12H" or
// "-PT30M". Months count as 30 days and years as 365 days.
func ParseDuration(value string) (time.Duration, error) {
	m := durationRegexp.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("could not parse ISO 8601 duration from '%s'", value)
	}

	var seconds float64
	for i, unit := range []float64{year, month, day, 3600, 60, 1} {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[i+2], 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ISO 8601 duration from '%s': %w", value, err)
		}
		seconds += n * unit
	}
	if m[1] == "-" {
		seconds = -seconds
	}

	if math.Abs(seconds) > float64(math.MaxInt64)/float64(time.Second) {
		return 0, fmt.Errorf("ISO 8601 duration '%s' out of range", value)
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}
