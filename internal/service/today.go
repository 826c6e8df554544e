package service

import (
	"fmt"

	"github.com/saadjs/caffinity-cli/internal/model"
)

type Dashboard struct {
	Date         DayKey                `json:"date"`
	Label        string                `json:"label"`
	Total        int                   `json:"total_mg"`
	Limit        int                   `json:"limit_mg"`
	Percent      int                   `json:"percent"`
	Status       ProgressStatus        `json:"status"`
	Level        IntakeLevel           `json:"level"`
	OverLimit    bool                  `json:"over_limit"`
	Entries      []model.CaffeineEntry `json:"entries"`
	EmptyMessage string                `json:"empty_message,omitempty"`
}

// BuildDashboard summarizes day out of the owner's full entry snapshot.
func BuildDashboard(all []model.CaffeineEntry, day, today DayKey) (Dashboard, error) {
	if _, err := ParseDayKey(day); err != nil {
		return Dashboard{}, err
	}
	limit := RecommendedLimit()
	entries := EntriesForDay(all, day)
	total := 0
	for _, e := range entries {
		total += e.CaffeineAmount
	}
	pct := ProgressPercent(total, limit)
	out := Dashboard{
		Date:      day,
		Label:     DisplayDay(day, today),
		Total:     total,
		Limit:     limit,
		Percent:   pct,
		Status:    ProgressStatusFor(pct),
		Level:     ClassifyIntake(total, limit),
		OverLimit: total > limit,
		Entries:   entries,
	}
	if len(entries) == 0 {
		if day == today {
			out.EmptyMessage = "No caffeine logged today"
		} else {
			out.EmptyMessage = fmt.Sprintf("No caffeine logged on %s", out.Label)
		}
	}
	return out, nil
}
