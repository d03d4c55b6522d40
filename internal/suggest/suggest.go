// Package suggest ranks heuristic task recommendations computed from
// the user's existing tasks: behavior patterns first, then suggestion
// candidates scored by confidence.
package suggest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"task-assistant/internal/models"
)

type Suggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Type        string   `json:"suggestion_type"`
}

type Pattern struct {
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence"`
	DataPoints      int      `json:"data_points"`
	Recommendations []string `json:"recommendations"`
}

type Action struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Reasoning string `json:"reasoning"`
}

type Score struct {
	Score            float64 `json:"score"`
	Level            string  `json:"level"`
	CompletionRate   float64 `json:"completion_rate"`
	PriorityBalance  float64 `json:"priority_balance"`
	TagUsage         float64 `json:"tag_usage"`
	DueDateAdherence float64 `json:"due_date_adherence"`
	Message          string  `json:"message"`
}

// Engine is stateless apart from the clock, which tests pin.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Suggestions returns the top suggestions for the task list, highest
// confidence first. An empty account gets the onboarding set.
func (e *Engine) Suggestions(tasks []*models.Task, limit int) []Suggestion {
	if len(tasks) == 0 {
		return onboardingSuggestions()
	}

	patterns := e.Patterns(tasks)

	var suggestions []Suggestion
	suggestions = append(suggestions, contextualSuggestions(patterns)...)
	suggestions = append(suggestions, e.completionSuggestions(tasks)...)
	suggestions = append(suggestions, optimizationSuggestions(tasks)...)
	suggestions = append(suggestions, e.proactiveSuggestions(tasks)...)

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func onboardingSuggestions() []Suggestion {
	return []Suggestion{
		{
			Title:       "Create your first task",
			Description: "Start by adding a simple task to get familiar with the system",
			Priority:    models.PriorityMedium,
			Tags:        []string{"getting-started"},
			Confidence:  0.95,
			Reasoning:   "New user detected - need to create first task",
			Type:        "onboarding",
		},
		{
			Title:       "Set up your workspace",
			Description: "Organize your tasks with tags like 'work', 'personal', 'urgent'",
			Priority:    models.PriorityMedium,
			Tags:        []string{"organization", "setup"},
			Confidence:  0.90,
			Reasoning:   "Help user establish good organizational habits",
			Type:        "onboarding",
		},
		{
			Title:       "Add a high-priority task",
			Description: "Practice setting priorities to manage your workload effectively",
			Priority:    models.PriorityHigh,
			Tags:        []string{"priority", "practice"},
			Confidence:  0.85,
			Reasoning:   "Teach priority management early",
			Type:        "onboarding",
		},
	}
}

// Patterns analyzes the task list for notable usage patterns.
func (e *Engine) Patterns(tasks []*models.Task) []Pattern {
	var patterns []Pattern
	if p := creationPattern(tasks); p != nil {
		patterns = append(patterns, *p)
	}
	if p := priorityPattern(tasks); p != nil {
		patterns = append(patterns, *p)
	}
	if p := completionPattern(tasks); p != nil {
		patterns = append(patterns, *p)
	}
	if p := tagPattern(tasks); p != nil {
		patterns = append(patterns, *p)
	}
	if p := e.duePattern(tasks); p != nil {
		patterns = append(patterns, *p)
	}
	return patterns
}

func creationPattern(tasks []*models.Task) *Pattern {
	if len(tasks) < 3 {
		return nil
	}

	daily := map[string]int{}
	for _, t := range tasks {
		daily[t.CreatedAt.Format(time.DateOnly)]++
	}

	var sum, max int
	for _, n := range daily {
		sum += n
		if n > max {
			max = n
		}
	}
	avg := float64(sum) / float64(len(daily))

	if float64(max) > avg*2 {
		return &Pattern{
			Type:        "burst_creation",
			Description: fmt.Sprintf("You tend to create tasks in bursts (up to %d per day)", max),
			Confidence:  0.8,
			DataPoints:  len(daily),
			Recommendations: []string{
				"Consider spreading task creation throughout the day",
				"Use task templates for common activities",
				"Batch planning sessions for better organization",
			},
		}
	}
	return nil
}

func priorityPattern(tasks []*models.Task) *Pattern {
	if len(tasks) < 5 {
		return nil
	}

	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	total := float64(len(tasks))
	highRatio := float64(counts[models.PriorityHigh]) / total
	lowRatio := float64(counts[models.PriorityLow]) / total

	switch {
	case highRatio > 0.6:
		return &Pattern{
			Type:        "high_priority_heavy",
			Description: fmt.Sprintf("You mark %.1f%% of tasks as high priority", highRatio*100),
			Confidence:  0.85,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Consider if all tasks truly need high priority",
				"Use medium priority for important but not urgent tasks",
				"Review priority criteria to avoid priority inflation",
			},
		}
	case lowRatio > 0.7:
		return &Pattern{
			Type:        "low_priority_heavy",
			Description: fmt.Sprintf("You mark %.1f%% of tasks as low priority", lowRatio*100),
			Confidence:  0.85,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Review if some tasks could be higher priority",
				"Consider delegating or removing very low priority tasks",
				"Focus on medium priority tasks for better balance",
			},
		}
	}
	return nil
}

func completionPattern(tasks []*models.Task) *Pattern {
	var completed, pending int
	var completionHours []float64
	for _, t := range tasks {
		if t.Completed {
			completed++
			completionHours = append(completionHours, t.UpdatedAt.Sub(t.CreatedAt).Hours())
		} else {
			pending++
		}
	}
	if completed == 0 || pending == 0 {
		return nil
	}

	completionRate := float64(completed) / float64(len(tasks))
	var sum float64
	for _, h := range completionHours {
		sum += h
	}
	avgHours := sum / float64(len(completionHours))

	switch {
	case completionRate < 0.3:
		return &Pattern{
			Type:        "low_completion_rate",
			Description: fmt.Sprintf("Your task completion rate is %.1f%%", completionRate*100),
			Confidence:  0.9,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Break down large tasks into smaller subtasks",
				"Set realistic deadlines for better motivation",
				"Focus on completing 1-3 tasks per day",
				"Review and remove tasks that are no longer relevant",
			},
		}
	case avgHours > 72:
		return &Pattern{
			Type:        "slow_completion",
			Description: fmt.Sprintf("Tasks take an average of %.1f hours to complete", avgHours),
			Confidence:  0.8,
			DataPoints:  len(completionHours),
			Recommendations: []string{
				"Set shorter time blocks for task completion",
				"Use time tracking to identify bottlenecks",
				"Consider if tasks are too complex",
				"Implement the 2-minute rule for quick tasks",
			},
		}
	}
	return nil
}

func tagPattern(tasks []*models.Task) *Pattern {
	var tagged int
	unique := map[string]struct{}{}
	for _, t := range tasks {
		if len(t.Tags) > 0 {
			tagged++
		}
		for _, tag := range t.Tags {
			unique[tag] = struct{}{}
		}
	}
	if tagged < 3 {
		return nil
	}

	usageRate := float64(tagged) / float64(len(tasks))
	if usageRate < 0.3 {
		return &Pattern{
			Type:        "low_tag_usage",
			Description: fmt.Sprintf("Only %.1f%% of tasks have tags", usageRate*100),
			Confidence:  0.75,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Use tags to categorize tasks by project or context",
				"Create consistent tag naming conventions",
				"Tag tasks to improve search and filtering",
				"Use tags for better task organization",
			},
		}
	}
	if len(unique) > 20 {
		return &Pattern{
			Type:        "high_tag_diversity",
			Description: fmt.Sprintf("You use %d different tags", len(unique)),
			Confidence:  0.7,
			DataPoints:  tagged,
			Recommendations: []string{
				"Consider consolidating similar tags",
				"Create a tag hierarchy for better organization",
				"Review and remove unused tags",
				"Standardize tag naming conventions",
			},
		}
	}
	return nil
}

func (e *Engine) duePattern(tasks []*models.Task) *Pattern {
	now := e.now()
	var withDue, overdue int
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		withDue++
		if t.Overdue(now) {
			overdue++
		}
	}
	if withDue < 3 {
		return nil
	}

	overdueRate := float64(overdue) / float64(withDue)
	if overdueRate > 0.3 {
		return &Pattern{
			Type:        "frequent_overdue",
			Description: fmt.Sprintf("%.1f%% of tasks with due dates are overdue", overdueRate*100),
			Confidence:  0.85,
			DataPoints:  withDue,
			Recommendations: []string{
				"Set more realistic due dates",
				"Add buffer time to your estimates",
				"Review and adjust deadlines regularly",
				"Consider using time estimates instead of just due dates",
			},
		}
	}
	return nil
}

func contextualSuggestions(patterns []Pattern) []Suggestion {
	var suggestions []Suggestion
	for _, p := range patterns {
		switch p.Type {
		case "low_completion_rate":
			suggestions = append(suggestions, Suggestion{
				Title:       "Create a daily focus list",
				Description: "Select 3 most important tasks for today and focus on completing them",
				Priority:    models.PriorityHigh,
				Tags:        []string{"productivity", "focus"},
				Confidence:  0.9,
				Reasoning:   "Low completion rate detected - need to improve focus",
				Type:        "productivity_boost",
			})
		case "high_priority_heavy":
			suggestions = append(suggestions, Suggestion{
				Title:       "Review and reprioritize tasks",
				Description: "Go through your high-priority tasks and identify which can be medium priority",
				Priority:    models.PriorityMedium,
				Tags:        []string{"organization", "priority"},
				Confidence:  0.85,
				Reasoning:   "Too many high-priority tasks detected",
				Type:        "priority_optimization",
			})
		case "frequent_overdue":
			suggestions = append(suggestions, Suggestion{
				Title:       "Set up a weekly planning session",
				Description: "Dedicate 30 minutes each week to review and adjust task deadlines",
				Priority:    models.PriorityMedium,
				Tags:        []string{"planning", "time-management"},
				Confidence:  0.8,
				Reasoning:   "Frequent overdue tasks detected",
				Type:        "time_management",
			})
		}
	}
	return suggestions
}

func (e *Engine) completionSuggestions(tasks []*models.Task) []Suggestion {
	var suggestions []Suggestion

	quickWins := quickWins(tasks)
	if len(quickWins) > 0 {
		suggestions = append(suggestions, Suggestion{
			Title:       fmt.Sprintf("Complete %d quick tasks", min(3, len(quickWins))),
			Description: "Focus on simple, low-priority tasks to build momentum",
			Priority:    models.PriorityLow,
			Tags:        []string{"momentum", "quick-wins"},
			Confidence:  0.8,
			Reasoning:   fmt.Sprintf("Found %d potential quick wins", len(quickWins)),
			Type:        "productivity_boost",
		})
	}

	now := e.now()
	var overdue int
	for _, t := range tasks {
		if t.Overdue(now) {
			overdue++
		}
	}
	if overdue > 0 {
		suggestions = append(suggestions, Suggestion{
			Title:       fmt.Sprintf("Address %d overdue tasks", overdue),
			Description: "Review and either complete, reschedule, or remove overdue tasks",
			Priority:    models.PriorityHigh,
			Tags:        []string{"overdue", "cleanup"},
			Confidence:  0.9,
			Reasoning:   fmt.Sprintf("Found %d overdue tasks", overdue),
			Type:        "priority_optimization",
		})
	}

	return suggestions
}

func optimizationSuggestions(tasks []*models.Task) []Suggestion {
	var suggestions []Suggestion

	var complex int
	for _, t := range tasks {
		if len(t.Description) > 100 {
			complex++
		}
	}
	if complex > 0 {
		suggestions = append(suggestions, Suggestion{
			Title:       "Break down complex tasks",
			Description: "Split large tasks into smaller, manageable subtasks",
			Priority:    models.PriorityMedium,
			Tags:        []string{"optimization", "complexity"},
			Confidence:  0.75,
			Reasoning:   fmt.Sprintf("Found %d complex tasks that could be simplified", complex),
			Type:        "workflow_improvement",
		})
	}

	tag, count := mostCommonTag(tasks)
	if count > 0 {
		suggestions = append(suggestions, Suggestion{
			Title:       fmt.Sprintf("Focus on %s tasks", tag),
			Description: fmt.Sprintf("You have %d tasks tagged with '%s' - consider batching them", count, tag),
			Priority:    models.PriorityMedium,
			Tags:        []string{"batching", "focus"},
			Confidence:  0.7,
			Reasoning:   fmt.Sprintf("Most common tag: %s with %d tasks", tag, count),
			Type:        "productivity_boost",
		})
	}

	return suggestions
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

func (e *Engine) proactiveSuggestions(tasks []*models.Task) []Suggestion {
	var suggestions []Suggestion

	wordCounts := map[string]int{}
	var order []string
	for _, t := range tasks {
		for _, w := range wordRe.FindAllString(strings.ToLower(t.Title), -1) {
			if wordCounts[w] == 0 {
				order = append(order, w)
			}
			wordCounts[w]++
		}
	}
	var activity string
	best := 0
	for _, w := range order {
		if len(w) > 3 && wordCounts[w] > 2 && wordCounts[w] > best {
			activity = w
			best = wordCounts[w]
		}
	}
	if activity != "" {
		suggestions = append(suggestions, Suggestion{
			Title:       fmt.Sprintf("Create template for %s tasks", activity),
			Description: fmt.Sprintf("Since you frequently create tasks involving '%s', consider creating a template", activity),
			Priority:    models.PriorityLow,
			Tags:        []string{"template", "efficiency"},
			Confidence:  0.6,
			Reasoning:   fmt.Sprintf("'%s' appears in %d task titles", activity, best),
			Type:        "workflow_improvement",
		})
	}

	var highPending int
	for _, t := range tasks {
		if !t.Completed && t.Priority == models.PriorityHigh {
			highPending++
		}
	}
	if highPending > 3 {
		suggestions = append(suggestions, Suggestion{
			Title:       "Schedule focused time blocks",
			Description: "Block 2-3 hours for your high-priority tasks to ensure completion",
			Priority:    models.PriorityHigh,
			Tags:        []string{"time-blocking", "focus"},
			Confidence:  0.8,
			Reasoning:   fmt.Sprintf("You have %d high-priority pending tasks", highPending),
			Type:        "time_management",
		})
	}

	return suggestions
}

// ProductivityScore grades the account on completion rate, priority
// balance, tag usage and due-date adherence.
func (e *Engine) ProductivityScore(tasks []*models.Task) Score {
	if len(tasks) == 0 {
		return Score{Level: "Beginner", Message: "No tasks to analyze"}
	}

	total := float64(len(tasks))
	var completed, high, tagged, withDue, overdue int
	now := e.now()
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
		if t.Priority == models.PriorityHigh {
			high++
		}
		if len(t.Tags) > 0 {
			tagged++
		}
		if t.DueDate != nil {
			withDue++
			if t.Overdue(now) {
				overdue++
			}
		}
	}

	completionRate := float64(completed) / total
	// 30% high priority is treated as the ideal split.
	priorityBalance := 1 - abs(float64(high)/total-0.3)
	tagScore := float64(tagged) / total
	dueDateScore := 0.5
	if withDue > 0 {
		dueDateScore = 1 - float64(overdue)/float64(withDue)
	}

	overall := (completionRate*0.4 + priorityBalance*0.2 + tagScore*0.2 + dueDateScore*0.2) * 100

	var level string
	switch {
	case overall >= 80:
		level = "Expert"
	case overall >= 60:
		level = "Advanced"
	case overall >= 40:
		level = "Intermediate"
	default:
		level = "Beginner"
	}

	return Score{
		Score:            round1(overall),
		Level:            level,
		CompletionRate:   round1(completionRate * 100),
		PriorityBalance:  round1(priorityBalance * 100),
		TagUsage:         round1(tagScore * 100),
		DueDateAdherence: round1(dueDateScore * 100),
		Message:          fmt.Sprintf("You're at %s level with %.1f%% productivity score", level, overall),
	}
}

// NextActions recommends what to do right now, most urgent first.
func (e *Engine) NextActions(tasks []*models.Task, limit int) []Action {
	if len(tasks) == 0 {
		return []Action{{
			Action:    "Create your first task",
			Priority:  models.PriorityHigh,
			Reasoning: "Get started with task management",
		}}
	}

	var actions []Action
	now := e.now()

	var overdue, highPending, pending int
	for _, t := range tasks {
		if t.Overdue(now) {
			overdue++
		}
		if !t.Completed {
			pending++
			if t.Priority == models.PriorityHigh {
				highPending++
			}
		}
	}

	if overdue > 0 {
		actions = append(actions, Action{
			Action:    fmt.Sprintf("Address %d overdue task(s)", overdue),
			Priority:  models.PriorityHigh,
			Reasoning: "Overdue tasks can create stress and reduce productivity",
		})
	}
	if highPending > 0 {
		actions = append(actions, Action{
			Action:    fmt.Sprintf("Focus on %d high-priority task(s)", highPending),
			Priority:  models.PriorityHigh,
			Reasoning: "High-priority tasks should be completed first",
		})
	}
	if wins := quickWins(tasks); len(wins) > 0 {
		actions = append(actions, Action{
			Action:    fmt.Sprintf("Complete %d quick task(s)", min(3, len(wins))),
			Priority:  models.PriorityMedium,
			Reasoning: "Quick wins build momentum and motivation",
		})
	}
	if pending > 10 {
		actions = append(actions, Action{
			Action:    "Review and prioritize your task list",
			Priority:  models.PriorityMedium,
			Reasoning: "Large number of pending tasks - need organization",
		})
	}

	if len(actions) > limit {
		actions = actions[:limit]
	}
	return actions
}

func quickWins(tasks []*models.Task) []*models.Task {
	var wins []*models.Task
	for _, t := range tasks {
		if !t.Completed && t.Priority == models.PriorityLow && len(t.Description) < 50 {
			wins = append(wins, t)
		}
	}
	return wins
}

func mostCommonTag(tasks []*models.Task) (string, int) {
	counts := map[string]int{}
	var order []string
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	best, bestCount := "", 0
	for _, tag := range order {
		if counts[tag] > bestCount {
			best, bestCount = tag, counts[tag]
		}
	}
	return best, bestCount
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
