// Package analytics aggregates a user's tasks into statistics,
// trends and weekly reports.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"task-assistant/internal/models"
)

type BasicStats struct {
	TotalTasks            int     `json:"total_tasks"`
	AvgTitleLength        float64 `json:"avg_title_length"`
	AvgDescriptionLength  float64 `json:"avg_description_length"`
	TasksWithDescriptions int     `json:"tasks_with_descriptions"`
	TasksWithTags         int     `json:"tasks_with_tags"`
	OldestTaskDays        int     `json:"oldest_task_days"`
	NewestTaskDays        int     `json:"newest_task_days"`
	Message               string  `json:"message,omitempty"`
}

type PriorityAnalysis struct {
	Distribution      map[string]int     `json:"distribution"`
	Percentages       map[string]float64 `json:"percentages"`
	HighPriorityRatio float64            `json:"high_priority_ratio"`
	PriorityBalance   string             `json:"priority_balance"`
	UrgentTasks       int                `json:"urgent_tasks"`
}

type StatusAnalysis struct {
	Distribution    map[string]int     `json:"distribution"`
	Percentages     map[string]float64 `json:"percentages"`
	CompletionRate  float64            `json:"completion_rate"`
	PendingTasks    int                `json:"pending_tasks"`
	InProgressTasks int                `json:"in_progress_tasks"`
	CompletedTasks  int                `json:"completed_tasks"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TagAnalysis struct {
	TotalUniqueTags    int        `json:"total_unique_tags"`
	MostCommonTags     []TagCount `json:"most_common_tags"`
	TagUsagePercentage float64    `json:"tag_usage_percentage"`
	TagDiversity       float64    `json:"tag_diversity"`
}

type ProductivityMetrics struct {
	AvgDailyTasks     float64 `json:"avg_daily_tasks"`
	MaxDailyTasks     int     `json:"max_daily_tasks"`
	MinDailyTasks     int     `json:"min_daily_tasks"`
	AvgTaskComplexity float64 `json:"avg_task_complexity"`
	TotalDaysActive   int     `json:"total_days_active"`
	ProductivityScore float64 `json:"productivity_score"`
}

type Trends struct {
	WeeklyTaskCounts    []int   `json:"weekly_task_counts"`
	TrendDirection      string  `json:"trend_direction"`
	TrendStrength       float64 `json:"trend_strength"`
	MostProductiveWeek  int     `json:"most_productive_week"`
	LeastProductiveWeek int     `json:"least_productive_week"`
}

type Stats struct {
	BasicStats          BasicStats          `json:"basic_stats"`
	PriorityAnalysis    PriorityAnalysis    `json:"priority_analysis"`
	StatusAnalysis      StatusAnalysis      `json:"status_analysis"`
	TagAnalysis         TagAnalysis         `json:"tag_analysis"`
	ProductivityMetrics ProductivityMetrics `json:"productivity_metrics"`
	Trends              Trends              `json:"trends"`
	Insights            []string            `json:"insights"`
	Recommendations     []string            `json:"recommendations"`
}

type WeeklyReport struct {
	Period               string         `json:"period"`
	TasksCreated         int            `json:"tasks_created"`
	TasksCompleted       int            `json:"tasks_completed"`
	CompletionRate       float64        `json:"completion_rate"`
	MostProductiveDay    string         `json:"most_productive_day"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	TopTags              []TagCount     `json:"top_tags"`
}

type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// ComprehensiveStats builds the full analytics payload for the task
// list. An empty list yields the empty-stats shape rather than nil
// sections.
func (e *Engine) ComprehensiveStats(tasks []*models.Task) Stats {
	if len(tasks) == 0 {
		return Stats{
			BasicStats:      BasicStats{Message: "No tasks found"},
			Insights:        []string{"No tasks available for analysis"},
			Recommendations: []string{"Add some tasks to get started!"},
		}
	}

	priorities := analyzePriorities(tasks)
	statuses := analyzeStatuses(tasks)
	tags := analyzeTags(tasks)
	metrics := productivityMetrics(tasks, statuses, priorities, tags)
	trends := analyzeTrends(tasks)

	return Stats{
		BasicStats:          e.basicStats(tasks),
		PriorityAnalysis:    priorities,
		StatusAnalysis:      statuses,
		TagAnalysis:         tags,
		ProductivityMetrics: metrics,
		Trends:              trends,
		Insights:            insights(priorities, statuses, tags, metrics, trends),
		Recommendations:     recommendations(priorities, statuses, tags, metrics),
	}
}

func (e *Engine) basicStats(tasks []*models.Task) BasicStats {
	var titleSum, descSum, withDesc, withTags int
	oldest, newest := tasks[0].CreatedAt, tasks[0].CreatedAt
	for _, t := range tasks {
		titleSum += len(t.Title)
		descSum += len(t.Description)
		if t.Description != "" {
			withDesc++
		}
		if len(t.Tags) > 0 {
			withTags++
		}
		if t.CreatedAt.Before(oldest) {
			oldest = t.CreatedAt
		}
		if t.CreatedAt.After(newest) {
			newest = t.CreatedAt
		}
	}

	now := e.now()
	n := float64(len(tasks))
	return BasicStats{
		TotalTasks:            len(tasks),
		AvgTitleLength:        float64(titleSum) / n,
		AvgDescriptionLength:  float64(descSum) / n,
		TasksWithDescriptions: withDesc,
		TasksWithTags:         withTags,
		OldestTaskDays:        int(now.Sub(oldest).Hours() / 24),
		NewestTaskDays:        int(now.Sub(newest).Hours() / 24),
	}
}

func analyzePriorities(tasks []*models.Task) PriorityAnalysis {
	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	total := float64(len(tasks))

	percentages := make(map[string]float64, len(counts))
	for p, c := range counts {
		percentages[p] = float64(c) / total * 100
	}

	return PriorityAnalysis{
		Distribution:      counts,
		Percentages:       percentages,
		HighPriorityRatio: float64(counts[models.PriorityHigh]) / total,
		PriorityBalance:   priorityBalance(counts),
		UrgentTasks:       counts[models.PriorityHigh],
	}
}

// priorityBalance grades the distribution by normalized entropy.
func priorityBalance(counts map[string]int) string {
	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return "balanced"
	}

	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(len(counts)))

	var ratio float64
	if maxEntropy > 0 {
		ratio = entropy / maxEntropy
	}

	switch {
	case ratio > 0.8:
		return "well_balanced"
	case ratio > 0.5:
		return "moderately_balanced"
	default:
		return "unbalanced"
	}
}

func analyzeStatuses(tasks []*models.Task) StatusAnalysis {
	counts := map[string]int{}
	for _, t := range tasks {
		status := t.Status
		if t.Completed {
			status = models.StatusCompleted
		}
		if status == "" {
			status = models.StatusPending
		}
		counts[status]++
	}

	total := float64(len(tasks))
	percentages := make(map[string]float64, len(counts))
	for s, c := range counts {
		percentages[s] = float64(c) / total * 100
	}

	return StatusAnalysis{
		Distribution:    counts,
		Percentages:     percentages,
		CompletionRate:  float64(counts[models.StatusCompleted]) / total * 100,
		PendingTasks:    counts[models.StatusPending],
		InProgressTasks: counts[models.StatusInProgress],
		CompletedTasks:  counts[models.StatusCompleted],
	}
}

func analyzeTags(tasks []*models.Task) TagAnalysis {
	counts := map[string]int{}
	var tagged int
	for _, t := range tasks {
		if len(t.Tags) > 0 {
			tagged++
		}
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}

	n := float64(len(tasks))
	return TagAnalysis{
		TotalUniqueTags:    len(counts),
		MostCommonTags:     topTags(counts, 5),
		TagUsagePercentage: float64(tagged) / n * 100,
		TagDiversity:       float64(len(counts)) / n,
	}
}

func topTags(counts map[string]int, limit int) []TagCount {
	all := make([]TagCount, 0, len(counts))
	for tag, c := range counts {
		all = append(all, TagCount{Tag: tag, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Tag < all[j].Tag
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

func productivityMetrics(tasks []*models.Task, statuses StatusAnalysis, priorities PriorityAnalysis, tags TagAnalysis) ProductivityMetrics {
	daily := map[string]int{}
	for _, t := range tasks {
		daily[t.CreatedAt.Format(time.DateOnly)]++
	}

	var sum int
	maxDaily, minDaily := 0, 0
	first := true
	for _, c := range daily {
		sum += c
		if first {
			maxDaily, minDaily = c, c
			first = false
			continue
		}
		if c > maxDaily {
			maxDaily = c
		}
		if c < minDaily {
			minDaily = c
		}
	}

	var complexitySum float64
	for _, t := range tasks {
		score := float64(len(t.Description)) / 100
		score += float64(len(t.Tags)) * 0.5
		if t.Priority == models.PriorityHigh {
			score++
		}
		complexitySum += score
	}

	// Completion dominates, then priority discipline, then tagging.
	score := statuses.CompletionRate*0.5 +
		100*(1-priorities.HighPriorityRatio)*0.3 +
		tags.TagUsagePercentage*0.2
	score = math.Min(100, math.Max(0, score))

	return ProductivityMetrics{
		AvgDailyTasks:     float64(sum) / float64(len(daily)),
		MaxDailyTasks:     maxDaily,
		MinDailyTasks:     minDaily,
		AvgTaskComplexity: complexitySum / float64(len(tasks)),
		TotalDaysActive:   len(daily),
		ProductivityScore: score,
	}
}

func analyzeTrends(tasks []*models.Task) Trends {
	weekly := map[time.Time]int{}
	for _, t := range tasks {
		weekly[weekStart(t.CreatedAt)]++
	}

	weeks := make([]time.Time, 0, len(weekly))
	for w := range weekly {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	counts := make([]int, 0, len(weeks))
	mostProductive, leastProductive := 0, 0
	for i, w := range weeks {
		c := weekly[w]
		counts = append(counts, c)
		if i == 0 {
			mostProductive, leastProductive = c, c
			continue
		}
		if c > mostProductive {
			mostProductive = c
		}
		if c < leastProductive {
			leastProductive = c
		}
	}

	direction := "stable"
	var strength float64
	if len(counts) > 1 {
		if counts[len(counts)-1] > counts[0] {
			direction = "increasing"
		} else {
			direction = "decreasing"
		}
		strength = math.Abs(float64(counts[len(counts)-1]-counts[0])) / float64(mostProductive)
	}

	return Trends{
		WeeklyTaskCounts:    counts,
		TrendDirection:      direction,
		TrendStrength:       strength,
		MostProductiveWeek:  mostProductive,
		LeastProductiveWeek: leastProductive,
	}
}

// weekStart truncates to midnight Monday of the same week.
func weekStart(at time.Time) time.Time {
	days := (int(at.Weekday()) + 6) % 7
	at = at.AddDate(0, 0, -days)
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
}

func insights(priorities PriorityAnalysis, statuses StatusAnalysis, tags TagAnalysis, metrics ProductivityMetrics, trends Trends) []string {
	var out []string

	if priorities.HighPriorityRatio > 0.3 {
		out = append(out, fmt.Sprintf("%.1f%% of your tasks are high priority - consider delegating or breaking them down", priorities.HighPriorityRatio*100))
	} else if priorities.HighPriorityRatio < 0.1 {
		out = append(out, "Your priority distribution looks balanced")
	}

	if statuses.CompletionRate < 20 {
		out = append(out, "Low completion rate - try focusing on smaller, achievable tasks")
	} else if statuses.CompletionRate > 80 {
		out = append(out, "Excellent completion rate! Keep up the great work")
	}

	if tags.TagUsagePercentage < 50 {
		out = append(out, "Consider using more tags to better organize your tasks")
	}

	if metrics.AvgDailyTasks > 10 {
		out = append(out, "High daily task volume - consider batching similar tasks")
	}

	switch trends.TrendDirection {
	case "increasing":
		out = append(out, "Task volume is increasing - monitor your workload")
	case "decreasing":
		out = append(out, "Task volume is decreasing - good progress on clearing your backlog")
	}

	return out
}

func recommendations(priorities PriorityAnalysis, statuses StatusAnalysis, tags TagAnalysis, metrics ProductivityMetrics) []string {
	var out []string

	if priorities.UrgentTasks > 5 {
		out = append(out, "You have many high-priority tasks. Try the Eisenhower Matrix to prioritize effectively")
	}
	if statuses.PendingTasks > 10 {
		out = append(out, "Many pending tasks - consider time-blocking to tackle them systematically")
	}
	if tags.TotalUniqueTags < 5 {
		out = append(out, "Create a tagging system (e.g., work, personal, urgent, learning) for better organization")
	}
	if metrics.AvgTaskComplexity > 2 {
		out = append(out, "Complex tasks detected - break them into smaller, manageable subtasks")
	}

	return out
}

// WeekReport summarizes the last seven days of activity.
func (e *Engine) WeekReport(tasks []*models.Task) WeeklyReport {
	weekAgo := e.now().AddDate(0, 0, -7)

	var recent []*models.Task
	for _, t := range tasks {
		if !t.CreatedAt.Before(weekAgo) {
			recent = append(recent, t)
		}
	}

	report := WeeklyReport{
		Period:               "Last 7 days",
		MostProductiveDay:    "No tasks",
		PriorityDistribution: map[string]int{},
	}
	if len(recent) == 0 {
		return report
	}

	tagCounts := map[string]int{}
	dayCounts := map[string]int{}
	var completed int
	for _, t := range recent {
		if t.Status == models.StatusCompleted {
			completed++
		}
		report.PriorityDistribution[t.Priority]++
		dayCounts[t.CreatedAt.Format("Monday")]++
		for _, tag := range t.Tags {
			tagCounts[tag]++
		}
	}

	bestDay, bestCount := "", 0
	days := make([]string, 0, len(dayCounts))
	for d := range dayCounts {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		if dayCounts[d] > bestCount {
			bestDay, bestCount = d, dayCounts[d]
		}
	}

	report.TasksCreated = len(recent)
	report.TasksCompleted = completed
	report.CompletionRate = float64(completed) / float64(len(recent)) * 100
	report.MostProductiveDay = bestDay
	report.TopTags = topTags(tagCounts, 3)
	return report
}
