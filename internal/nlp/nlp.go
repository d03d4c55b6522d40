// Package nlp extracts structured task fields from free text: due
// dates ("tomorrow", "next friday", "in 3 days"), priority words and
// status words.
package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"task-assistant/internal/models"
)

var (
	todayRe     = regexp.MustCompile(`\btoday\b|\bthis\s+(?:morning|afternoon|evening)\b|\btonight\b`)
	tomorrowRe  = regexp.MustCompile(`\btomorrow\b`)
	thisWeekRe  = regexp.MustCompile(`\bthis\s+week\b|\bend\s+of\s+week\b`)
	nextWeekRe  = regexp.MustCompile(`\bnext\s+week\b`)
	thisMonthRe = regexp.MustCompile(`\bthis\s+month\b|\bend\s+of\s+month\b`)
	nextMonthRe = regexp.MustCompile(`\bnext\s+month\b`)
	endOfYearRe = regexp.MustCompile(`\bend\s+of\s+year\b`)
	nextDayRe   = regexp.MustCompile(`\bnext\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	thisDayRe   = regexp.MustCompile(`\bthis\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	inDaysRe    = regexp.MustCompile(`\bin\s+(\d+)\s+days?\b`)
	inWeeksRe   = regexp.MustCompile(`\bin\s+(\d+)\s+weeks?\b`)
	inMonthsRe  = regexp.MustCompile(`\bin\s+(\d+)\s+months?\b`)
	numericRe   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	monthDayRe  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})\b`)

	highRe       = regexp.MustCompile(`\b(?:urgent|critical|asap|emergency|high|important|priority)\b`)
	mediumRe     = regexp.MustCompile(`\b(?:medium|normal|moderate)\b`)
	lowRe        = regexp.MustCompile(`\b(?:low|minor|optional)\b`)
	completedRe  = regexp.MustCompile(`\b(?:done|completed|finished|complete)\b`)
	inProgressRe = regexp.MustCompile(`\b(?:in\s+progress|working|ongoing)\b`)
	pendingRe    = regexp.MustCompile(`\b(?:pending|waiting|not\s+started)\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseDueDate resolves a natural-language date reference in text
// against now. The returned time is midnight of the resolved day.
func ParseDueDate(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(text)
	today := midnight(now)

	// weekday() with Monday as 0, matching the week math below.
	weekday := (int(now.Weekday()) + 6) % 7

	switch {
	case todayRe.MatchString(text):
		return today, true
	case tomorrowRe.MatchString(text):
		return today.AddDate(0, 0, 1), true
	case nextWeekRe.MatchString(text):
		return today.AddDate(0, 0, 7-weekday), true
	case thisWeekRe.MatchString(text):
		return today.AddDate(0, 0, 6-weekday), true
	case nextMonthRe.MatchString(text):
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0), true
	case thisMonthRe.MatchString(text):
		firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1), true
	case endOfYearRe.MatchString(text):
		return time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location()), true
	}

	if m := nextDayRe.FindStringSubmatch(text); m != nil {
		target := (int(weekdays[m[1]]) + 6) % 7
		ahead := target - weekday
		if ahead <= 0 {
			ahead += 7
		}
		return today.AddDate(0, 0, ahead), true
	}
	if m := thisDayRe.FindStringSubmatch(text); m != nil {
		target := (int(weekdays[m[1]]) + 6) % 7
		ahead := target - weekday
		if ahead < 0 {
			return time.Time{}, false // already passed this week
		}
		return today.AddDate(0, 0, ahead), true
	}

	if m := inDaysRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, n), true
	}
	if m := inWeeksRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, n*7), true
	}
	if m := inMonthsRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, n, 0), true
	}

	// M/D/Y or M-D-Y.
	if m := numericRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		if month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
		}
	}

	// "december 25" rolls to next year once the date has passed.
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		month := months[m[1]]
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if month < now.Month() || (month == now.Month() && day < now.Day()) {
			year++
		}
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}

// ExtractPriority finds a priority word in text. Urgency words win
// over medium and low words.
func ExtractPriority(text string) (string, bool) {
	text = strings.ToLower(text)
	switch {
	case highRe.MatchString(text):
		return models.PriorityHigh, true
	case mediumRe.MatchString(text):
		return models.PriorityMedium, true
	case lowRe.MatchString(text):
		return models.PriorityLow, true
	}
	return "", false
}

// ExtractStatus finds a status word in text.
func ExtractStatus(text string) (string, bool) {
	text = strings.ToLower(text)
	switch {
	case completedRe.MatchString(text):
		return models.StatusCompleted, true
	case inProgressRe.MatchString(text):
		return models.StatusInProgress, true
	case pendingRe.MatchString(text):
		return models.StatusPending, true
	}
	return "", false
}

func midnight(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
}
