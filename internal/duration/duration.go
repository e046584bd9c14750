// Package duration converts human-friendly expressions such as "10m", "2d"
// or "1 hour" into concrete offsets, and formats offsets back into long-form
// text for user-facing wait messages.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is returned for empty, zero, negative or unparseable expressions.
var ErrInvalid = errors.New("invalid duration")

var exprPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]+)$`)

var units = map[string]time.Duration{
	"ms":           time.Millisecond,
	"msec":         time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"secs":         time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"min":          time.Minute,
	"mins":         time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hr":           time.Hour,
	"hrs":          time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
	"w":            7 * 24 * time.Hour,
	"week":         7 * 24 * time.Hour,
	"weeks":        7 * 24 * time.Hour,
}

// Parse converts an expression like "10m", "2d" or "1 hour" into a duration.
// Plain Go duration syntax ("1h30m") is accepted as well.
func Parse(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, ErrInvalid
	}

	if d, err := time.ParseDuration(expr); err == nil {
		if d <= 0 {
			return 0, ErrInvalid
		}
		return d, nil
	}

	m := exprPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, ErrInvalid
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, ErrInvalid
	}
	unit, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, ErrInvalid
	}
	d := time.Duration(value * float64(unit))
	if d <= 0 {
		return 0, ErrInvalid
	}
	return d, nil
}

// Humanize renders a duration in long form, e.g. "9 minutes, 59 seconds".
func Humanize(d time.Duration) string {
	if d < time.Second {
		return "less than a second"
	}
	steps := []struct {
		d    time.Duration
		name string
	}{
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
	}
	parts := make([]string, 0, len(steps)+1)
	for _, u := range steps {
		if d >= u.d {
			count := d / u.d
			parts = append(parts, plural(int(count), u.name))
			d -= count * u.d
		}
	}
	if seconds := int(d.Seconds()); seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, ", ")
}

func plural(count int, singular string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
