package followup

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddMonths adds m calendar months to the date part of anchor. When the
// target month is shorter the day clamps to its last day, so 2024-01-31
// plus one month is 2024-02-29.
func AddMonths(anchor time.Time, m int) time.Time {
	y, mo, d := anchor.Date()
	first := time.Date(y, mo+time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOf truncates t to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildSchedule returns the full milestone set for a case.
func BuildSchedule(caseID uuid.UUID, anchor time.Time) []Milestone {
	out := make([]Milestone, 0, len(MilestoneMonths))
	for _, m := range MilestoneMonths {
		out = append(out, Milestone{
			CaseID:          caseID,
			MilestoneMonths: m,
			DueDate:         AddMonths(anchor, m),
			Status:          StoredUpcoming,
		})
	}
	return out
}

// Display projects a milestone's status for "today", a calendar date.
func Display(m Milestone, today time.Time) DisplayStatus {
	if m.FollowupDate != nil || strings.EqualFold(m.Status, StoredCompleted) {
		return Completed
	}
	if !dateOf(m.DueDate).After(dateOf(today)) {
		return Due
	}
	return Upcoming
}
