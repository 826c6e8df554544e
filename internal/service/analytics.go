package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/saadjs/caffinity-cli/internal/model"
)

const recommendedLimitMg = 400

// RecommendedLimit is the daily caffeine guideline for adults, in mg.
func RecommendedLimit() int {
	return recommendedLimitMg
}

type HistoryPoint struct {
	Day   DayKey `json:"date"`
	Total int    `json:"total"`
}

type SeriesSummary struct {
	Days            int     `json:"days"`
	Total           int     `json:"total"`
	AveragePerDay   float64 `json:"avg_per_day"`
	DaysWithEntries int     `json:"days_with_entries"`
	DaysOverLimit   int     `json:"days_over_limit"`
}

// EntriesForDay returns the entries logged on day, most recent first. The
// input slice is left untouched.
func EntriesForDay(all []model.CaffeineEntry, day DayKey) []model.CaffeineEntry {
	out := make([]model.CaffeineEntry, 0)
	for _, e := range all {
		if NormalizeDay(e.Timestamp) == day {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func TotalForDay(all []model.CaffeineEntry, day DayKey) int {
	total := 0
	for _, e := range EntriesForDay(all, day) {
		total += e.CaffeineAmount
	}
	return total
}

// BuildSeries returns one point per day of the windowDays-long window ending
// at today, oldest first. Days without entries are present with a zero total.
func BuildSeries(all []model.CaffeineEntry, windowDays int, today DayKey) ([]HistoryPoint, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("window must be at least 1 day, got %d", windowDays)
	}
	if _, err := ParseDayKey(today); err != nil {
		return nil, err
	}

	totals := dailyTotals(all)
	points := make([]HistoryPoint, 0, windowDays)
	for offset := 0; offset < windowDays; offset++ {
		day, err := AddDays(today, -offset)
		if err != nil {
			return nil, err
		}
		points = append(points, HistoryPoint{Day: day, Total: totals[day]})
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// MaxDay returns the heaviest day of the window, earliest date on ties. It
// returns nil when no entry falls inside the window at all.
func MaxDay(all []model.CaffeineEntry, windowDays int, today DayKey) (*HistoryPoint, error) {
	points, err := BuildSeries(all, windowDays, today)
	if err != nil {
		return nil, err
	}
	inWindow := make(map[DayKey]bool, len(points))
	for _, p := range points {
		inWindow[p.Day] = true
	}
	hasEntries := false
	for _, e := range all {
		if inWindow[NormalizeDay(e.Timestamp)] {
			hasEntries = true
			break
		}
	}
	if !hasEntries {
		return nil, nil
	}

	best := points[0]
	for _, p := range points[1:] {
		if p.Total > best.Total {
			best = p
		}
	}
	return &best, nil
}

func SummarizeSeries(all []model.CaffeineEntry, points []HistoryPoint, limit int) SeriesSummary {
	out := SeriesSummary{Days: len(points)}
	active := map[DayKey]bool{}
	for _, e := range all {
		active[NormalizeDay(e.Timestamp)] = true
	}
	for _, p := range points {
		out.Total += p.Total
		if active[p.Day] {
			out.DaysWithEntries++
		}
		if p.Total > limit {
			out.DaysOverLimit++
		}
	}
	if out.Days > 0 {
		out.AveragePerDay = float64(out.Total) / float64(out.Days)
	}
	return out
}

type ProgressStatus string

const (
	ProgressLow      ProgressStatus = "low"
	ProgressModerate ProgressStatus = "moderate"
	ProgressHigh     ProgressStatus = "high"
)

// ProgressPercent is total as a share of limit, rounded and capped at 100.
func ProgressPercent(total, limit int) int {
	if limit <= 0 {
		return 100
	}
	pct := int(math.Round(float64(total) / float64(limit) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func ProgressStatusFor(percent int) ProgressStatus {
	switch {
	case percent < 50:
		return ProgressLow
	case percent < 85:
		return ProgressModerate
	default:
		return ProgressHigh
	}
}

func dailyTotals(all []model.CaffeineEntry) map[DayKey]int {
	totals := make(map[DayKey]int)
	for _, e := range all {
		totals[NormalizeDay(e.Timestamp)] += e.CaffeineAmount
	}
	return totals
}
