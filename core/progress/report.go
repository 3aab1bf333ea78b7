package progress

import (
	"sort"
	"time"

	"github.com/arnalearn/arna/core/user"
)

// BuildReport aggregates the progress records of usr.
// The average is taken over every record and is 0 when there are none.
func BuildReport(usr user.User, progresses []Progress, totalAssignments int) UserReport {
	if progresses == nil {
		progresses = []Progress{}
	}
	var completed, sum int
	for _, p := range progresses {
		if p.IsCompleted() {
			completed++
		}
		sum += p.Score
	}
	return UserReport{
		User:                 usr,
		Progresses:           progresses,
		CompletedAssignments: completed,
		TotalAssignments:     totalAssignments,
		AverageScore:         average(sum, len(progresses)),
	}
}

// BuildDetail extends BuildReport with the last activity date and weekly stats.
func BuildDetail(usr user.User, progresses []Progress, totalAssignments int) LearnerDetail {
	return LearnerDetail{
		UserReport:       BuildReport(usr, progresses, totalAssignments),
		LastActivityDate: LastActivity(progresses),
		WeeklyStats:      WeeklyStats(progresses),
	}
}

func Summarize(usr user.User, progresses []Progress, totalAssignments int) LearnerSummary {
	r := BuildReport(usr, progresses, totalAssignments)
	return LearnerSummary{
		User:                 usr,
		CompletedAssignments: r.CompletedAssignments,
		TotalAssignments:     r.TotalAssignments,
		AverageScore:         r.AverageScore,
		LastActivityDate:     LastActivity(progresses),
	}
}

// WeekStart returns midnight (UTC) of the Monday starting the week t falls in.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	diff := (int(t.Weekday()) - int(time.Monday) + 7) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-diff, 0, 0, 0, 0, time.UTC)
}

// WeeklyStats buckets submitted records by WeekStart, most recent week first.
// Records without a submission time are skipped.
func WeeklyStats(progresses []Progress) []WeeklyStat {
	type bucket struct{ count, sum int }
	buckets := make(map[time.Time]*bucket)
	for _, p := range progresses {
		if p.SubmittedAt == nil {
			continue
		}
		ws := WeekStart(*p.SubmittedAt)
		b, ok := buckets[ws]
		if !ok {
			b = new(bucket)
			buckets[ws] = b
		}
		b.count++
		b.sum += p.Score
	}

	stats := make([]WeeklyStat, 0, len(buckets))
	for ws, b := range buckets {
		stats = append(stats, WeeklyStat{WeekStart: ws, CompletedCount: b.count, AverageScore: average(b.sum, b.count)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].WeekStart.After(stats[j].WeekStart) })
	return stats
}

// LastActivity returns the latest submission time, or nil.
func LastActivity(progresses []Progress) *time.Time {
	var last *time.Time
	for _, p := range progresses {
		if p.SubmittedAt != nil && (last == nil || p.SubmittedAt.After(*last)) {
			t := *p.SubmittedAt
			last = &t
		}
	}
	return last
}

func average(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
