package chatlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by windows and API payloads.
const DateLayout = "2006-01-02"

var (
	koreanBanner  = regexp.MustCompile(`^-{3,}\s*(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일(?:\s+\S+)?\s*-{3,}$`)
	englishBanner = regexp.MustCompile(`^-{3,}\s*(?:[A-Za-z]+,\s*)?([A-Za-z]+)\s+(\d{1,2}),\s*(\d{4})\s*-{3,}$`)
	isoBanner     = regexp.MustCompile(`^-{3,}\s*(\d{4})-(\d{1,2})-(\d{1,2})\s*-{3,}$`)
	// Mobile exports print the day on its own line without dashes.
	mobileBanner = regexp.MustCompile(`^(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일\s+[월화수목금토일]요일$`)
)

// DateError reports a date banner whose date tokens do not form a real date.
type DateError struct {
	Line int
	Text string
	Err  error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date banner on line %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// Window is an inclusive range of calendar days. A zero Start or End leaves
// that side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses optional YYYY-MM-DD bounds. Empty strings are unbounded.
func NewWindow(start, end string) (Window, error) {
	var w Window
	var err error
	if start != "" {
		if w.Start, err = time.Parse(DateLayout, start); err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if w.End, err = time.Parse(DateLayout, end); err != nil {
			return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return Window{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return w, nil
}

// Contains reports whether day d lies in the window.
func (w Window) Contains(d time.Time) bool {
	d = truncateDay(d)
	if !w.Start.IsZero() && d.Before(truncateDay(w.Start)) {
		return false
	}
	if !w.End.IsZero() && d.After(truncateDay(w.End)) {
		return false
	}
	return true
}

// Excerpt is the part of a log that falls inside a window.
type Excerpt struct {
	Lines []string
	// First and Last are the governing dates of the first and last kept line.
	First time.Time
	Last  time.Time
}

// Count is the number of kept lines.
func (e Excerpt) Count() int { return len(e.Lines) }

// Empty reports whether no line fell inside the window.
func (e Excerpt) Empty() bool { return len(e.Lines) == 0 }

// Filter returns the lines whose governing date lies in w, in original order.
// Banner lines are governed by their own date. Lines before the first banner
// have no date and are dropped. A banner with an impossible date fails the
// whole call with a *DateError.
func Filter(lines []string, w Window) (Excerpt, error) {
	var (
		out     Excerpt
		current time.Time
		known   bool
	)
	for i, line := range lines {
		day, isBanner, err := ParseBanner(line)
		if err != nil {
			return Excerpt{}, &DateError{Line: i + 1, Text: line, Err: err}
		}
		if isBanner {
			current, known = day, true
		}
		if !known || !w.Contains(current) {
			continue
		}
		if out.Empty() {
			out.First = current
		}
		out.Last = current
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}

// ParseBanner reports whether line is a date banner and returns its day.
// A line shaped like a banner with invalid date tokens returns an error.
func ParseBanner(line string) (time.Time, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "---") {
		if m := mobileBanner.FindStringSubmatch(line); m != nil {
			d, err := makeDate(m[1], m[2], m[3])
			return d, true, err
		}
		return time.Time{}, false, nil
	}

	if m := koreanBanner.FindStringSubmatch(line); m != nil {
		d, err := makeDate(m[1], m[2], m[3])
		return d, true, err
	}
	if m := isoBanner.FindStringSubmatch(line); m != nil {
		d, err := makeDate(m[1], m[2], m[3])
		return d, true, err
	}
	if m := englishBanner.FindStringSubmatch(line); m != nil {
		month, ok := monthByName(m[1])
		if !ok {
			return time.Time{}, true, fmt.Errorf("unknown month %q", m[1])
		}
		d, err := makeDate(m[3], strconv.Itoa(int(month)), m[2])
		return d, true, err
	}
	return time.Time{}, false, nil
}

func makeDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", month)
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, fmt.Errorf("invalid day %q", day)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, fmt.Errorf("day %d out of range for %d-%02d", d, y, m)
	}
	return t, nil
}

func monthByName(name string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(name, full) || strings.EqualFold(name, full[:3]) {
			return m, true
		}
	}
	return 0, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
