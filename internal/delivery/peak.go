package delivery

import (
	"fmt"
	"strings"
	"time"
)

// PeakPolicy reports whether the peak surcharge applies at t.
type PeakPolicy func(t time.Time) bool

// NeverPeak is used when no peak windows are configured.
func NeverPeak(time.Time) bool { return false }

type window struct {
	start int
	end   int
}

func (w window) contains(minute int) bool {
	if w.start <= w.end {
		return minute >= w.start && minute < w.end
	}
	// wraps past midnight
	return minute >= w.start || minute < w.end
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// WindowPolicy builds a policy from "HH:MM-HH:MM" windows evaluated in the named IANA
// location. A non-empty weekdays list restricts the windows to those days.
func WindowPolicy(windows, weekdays []string, timezone string) (PeakPolicy, error) {
	parsed := make([]window, 0, len(windows))
	for _, raw := range windows {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		w, err := parseWindow(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, w)
	}
	if len(parsed) == 0 {
		return NeverPeak, nil
	}

	loc := time.UTC
	if tz := strings.TrimSpace(timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("peak timezone %q: %w", tz, err)
		}
		loc = l
	}

	days := map[time.Weekday]bool{}
	for _, raw := range weekdays {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown peak weekday %q", raw)
		}
		days[day] = true
	}

	return func(t time.Time) bool {
		local := t.In(loc)
		if len(days) > 0 && !days[local.Weekday()] {
			return false
		}
		minute := local.Hour()*60 + local.Minute()
		for _, w := range parsed {
			if w.contains(minute) {
				return true
			}
		}
		return false
	}, nil
}

func parseWindow(raw string) (window, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return window{}, fmt.Errorf("peak window %q must be HH:MM-HH:MM", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return window{}, fmt.Errorf("peak window %q: %w", raw, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return window{}, fmt.Errorf("peak window %q: %w", raw, err)
	}
	if start == end {
		return window{}, fmt.Errorf("peak window %q is empty", raw)
	}
	return window{start: start, end: end}, nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}
