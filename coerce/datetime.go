package coerce

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/tbxark/ticketagent/llm"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	invalidDate   = "INVALID_DATE"
	minPlausibleY = 1900
	maxPlausibleY = 2200
)

var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

type datePattern struct {
	re *regexp.Regexp
	// positions of year, first and second numbers among the submatches
	year, first, second int
}

// The first number is tried as the month, then as the day.
var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), 1, 2, 3},
	{regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`), 3, 1, 2},
	{regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`), 1, 2, 3},
}

var isoDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

const dateSystemPrompt = `You are a date parser. Today is %s (%s). Convert the user's input to a calendar date.

Rules:
- "tomorrow" = today + 1 day
- "yesterday" = today - 1 day
- "next Monday" = the next Monday after today
- "in 3 days" = today + 3 days
- "next week" = today + 7 days
- "end of month" = last day of the current month
- "beginning of next month" = first day of next month

Return ONLY the date in YYYY-MM-DD format. No explanations.
If the input is not a date, return INVALID_DATE.`

func (c *Coercer) coerceDate(ctx context.Context, input string) (string, resolution, error) {
	if d, ok := parseDateLocally(input); ok {
		return d.Format(dateLayout), resolvedLocally, nil
	}
	if c.completer == nil {
		return "", resolvedLocally, fmt.Errorf("%w: not a recognized date, use YYYY-MM-DD", ErrUnparseable)
	}
	d, err := c.parseDateWithModel(ctx, input)
	if err != nil {
		return "", resolvedByModel, err
	}
	return d, resolvedByModel, nil
}

func parseDateLocally(input string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, true
		}
	}
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[p.year])
		first, _ := strconv.Atoi(m[p.first])
		second, _ := strconv.Atoi(m[p.second])
		if t, ok := calendarDate(year, first, second); ok {
			return t, true
		}
		if t, ok := calendarDate(year, second, first); ok {
			return t, true
		}
	}
	if t, err := dateparse.ParseStrict(input); err == nil && t.Year() >= minPlausibleY && t.Year() <= maxPlausibleY {
		return t, true
	}
	return time.Time{}, false
}

// calendarDate rejects dates time.Date would normalize, such as February 30.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func (c *Coercer) parseDateWithModel(ctx context.Context, input string) (string, error) {
	today := c.now()
	reply, err := c.completer.Complete(ctx, &llm.Request{
		Name:         "coerce_date",
		SystemPrompt: fmt.Sprintf(dateSystemPrompt, today.Format(dateLayout), today.Weekday()),
		UserPrompt:   input,
		Temperature:  0.1,
		MaxTokens:    20,
	})
	if err != nil {
		return "", fmt.Errorf("date interpretation unavailable: %w", err)
	}
	candidate := isoDate.FindString(reply)
	if candidate == "" {
		if strings.Contains(reply, invalidDate) {
			return "", fmt.Errorf("%w: could not interpret %q as a date", ErrUnparseable, input)
		}
		return "", fmt.Errorf("%w: model returned malformed date %q", ErrUnparseable, reply)
	}
	if _, err := time.Parse(dateLayout, candidate); err != nil {
		return "", fmt.Errorf("%w: %s is not a calendar date", ErrUnparseable, candidate)
	}
	return candidate, nil
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15 04",
}

var (
	clockPattern    = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([ap])?\.?m?\b`)
	bareHourPattern = regexp.MustCompile(`(\d{1,2})\s*([ap])\.?m\b`)
	packedPattern   = regexp.MustCompile(`\b(\d{1,2})\s?(\d{2})\b`)
)

func parseTime(input string) (string, error) {
	upper := strings.ToUpper(strings.Join(strings.Fields(input), " "))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format(timeLayout), nil
		}
	}

	lower := strings.ToLower(input)
	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		if s, ok := clock(m[1], m[2], m[4]); ok {
			return s, nil
		}
	}
	if m := bareHourPattern.FindStringSubmatch(lower); m != nil {
		if s, ok := clock(m[1], "0", m[2]); ok {
			return s, nil
		}
	}
	if m := packedPattern.FindStringSubmatch(lower); m != nil {
		if s, ok := clock(m[1], m[2], ""); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: use HH:MM or a time like 2:30 PM", ErrUnparseable)
}

// clock builds HH:MM; meridiem is "a", "p" or empty for a 24-hour value.
func clock(hourText, minuteText, meridiem string) (string, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute > 59 {
		return "", false
	}
	switch meridiem {
	case "a", "p":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if meridiem == "p" && hour != 12 {
			hour += 12
		} else if meridiem == "a" && hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
