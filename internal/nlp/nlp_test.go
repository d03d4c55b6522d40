package nlp

import (
	"testing"
	"time"

	"task-assistant/internal/models"
)

// Wednesday.
var testNow = time.Date(2026, time.August, 26, 15, 30, 0, 0, time.UTC)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"finish this today", date(2026, time.August, 26)},
		{"tonight", date(2026, time.August, 26)},
		{"submit the report tomorrow", date(2026, time.August, 27)},
		{"sometime this week", date(2026, time.August, 30)},
		{"end of week", date(2026, time.August, 30)},
		{"plan for next week", date(2026, time.August, 31)},
		{"pay rent this month", date(2026, time.August, 31)},
		{"renew passport next month", date(2026, time.September, 1)},
		{"taxes by end of year", date(2026, time.December, 31)},
		{"call mom next friday", date(2026, time.August, 28)},
		{"meeting next wednesday", date(2026, time.September, 2)},
		{"dentist this thursday", date(2026, time.August, 27)},
		{"follow up in 3 days", date(2026, time.August, 29)},
		{"review in 2 weeks", date(2026, time.September, 9)},
		{"renewal in 1 month", date(2026, time.September, 26)},
		{"due 12/25/2026", date(2026, time.December, 25)},
		{"due 9-1-26", date(2026, time.September, 1)},
		{"party on december 25", date(2026, time.December, 25)},
		{"conference on january 5", date(2027, time.January, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDueDate(tt.text, testNow)
			if !ok {
				t.Fatalf("ParseDueDate(%q) found no date", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDueDate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDueDateNoMatch(t *testing.T) {
	for _, text := range []string{
		"buy groceries",
		"",
		"this monday", // already passed on a wednesday
	} {
		if got, ok := ParseDueDate(text, testNow); ok {
			t.Errorf("ParseDueDate(%q) = %v, want no match", text, got)
		}
	}
}

func TestExtractPriority(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"this is urgent", models.PriorityHigh, true},
		{"important meeting", models.PriorityHigh, true},
		{"normal chores", models.PriorityMedium, true},
		{"low effort cleanup", models.PriorityLow, true},
		{"just a task", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractPriority(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractPriority(%q) = (%q, %v), want (%q, %v)",
				tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractStatus(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"mark it done", models.StatusCompleted, true},
		{"still working on it", models.StatusInProgress, true},
		{"waiting for review", models.StatusPending, true},
		{"nothing here", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractStatus(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractStatus(%q) = (%q, %v), want (%q, %v)",
				tt.text, got, ok, tt.want, tt.ok)
		}
	}
}
