package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnalearn/arna/core/user"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"monday midnight", "2024-03-11T00:00:00Z", monday},
		{"monday evening", "2024-03-11T23:59:59Z", monday},
		{"wednesday", "2024-03-13T12:30:00Z", monday},
		{"sunday", "2024-03-17T23:00:00Z", monday},
		{"previous sunday", "2024-03-10T10:00:00Z", monday.AddDate(0, 0, -7)},
		{"offset converted to UTC", "2024-03-11T01:00:00+02:00", monday.AddDate(0, 0, -7)},
		{"across month", "2024-03-01T08:00:00Z", time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(*at(tt.in))
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestBuildReport(t *testing.T) {
	usr := user.User{ID: 1, Username: "jane"}

	t.Run("no records", func(t *testing.T) {
		r := BuildReport(usr, nil, 4)
		assert.Equal(t, 0.0, r.AverageScore)
		assert.Equal(t, 0, r.CompletedAssignments)
		assert.Equal(t, 4, r.TotalAssignments)
		assert.NotNil(t, r.Progresses)
	})

	t.Run("pending records count in average", func(t *testing.T) {
		progresses := []Progress{
			{ID: 1, Score: 100, Status: StatusCompleted, SubmittedAt: at("2024-03-11T10:00:00Z")},
			{ID: 2, Score: 50, Status: StatusCompleted, SubmittedAt: at("2024-03-12T10:00:00Z")},
			{ID: 3, Score: 0, Status: StatusPending},
		}
		r := BuildReport(usr, progresses, 5)
		assert.Equal(t, 2, r.CompletedAssignments)
		assert.Equal(t, 5, r.TotalAssignments)
		assert.InDelta(t, 50.0, r.AverageScore, 1e-9)
	})
}

func TestWeeklyStats(t *testing.T) {
	progresses := []Progress{
		{ID: 1, Score: 40, Status: StatusCompleted, SubmittedAt: at("2024-03-10T18:00:00Z")}, // sunday
		{ID: 2, Score: 80, Status: StatusCompleted, SubmittedAt: at("2024-03-11T08:00:00Z")}, // monday
		{ID: 3, Score: 100, Status: StatusCompleted, SubmittedAt: at("2024-03-15T08:00:00Z")},
		{ID: 4, Status: StatusPending},
	}

	stats := WeeklyStats(progresses)
	require.Len(t, stats, 2)

	assert.True(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC).Equal(stats[0].WeekStart))
	assert.Equal(t, 2, stats[0].CompletedCount)
	assert.InDelta(t, 90.0, stats[0].AverageScore, 1e-9)

	assert.True(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).Equal(stats[1].WeekStart))
	assert.Equal(t, 1, stats[1].CompletedCount)
	assert.InDelta(t, 40.0, stats[1].AverageScore, 1e-9)

	assert.Empty(t, WeeklyStats(nil))
}

func TestLastActivity(t *testing.T) {
	assert.Nil(t, LastActivity(nil))
	assert.Nil(t, LastActivity([]Progress{{Status: StatusPending}}))

	last := LastActivity([]Progress{
		{SubmittedAt: at("2024-03-10T18:00:00Z")},
		{SubmittedAt: at("2024-04-01T09:00:00Z")},
		{},
		{SubmittedAt: at("2024-03-20T18:00:00Z")},
	})
	require.NotNil(t, last)
	assert.True(t, at("2024-04-01T09:00:00Z").Equal(*last))
}

func TestBuildDetail(t *testing.T) {
	usr := user.User{ID: 7}
	d := BuildDetail(usr, []Progress{
		{Score: 60, Status: StatusCompleted, SubmittedAt: at("2024-03-11T08:00:00Z")},
	}, 3)
	assert.Equal(t, 1, d.CompletedAssignments)
	assert.InDelta(t, 60.0, d.AverageScore, 1e-9)
	require.NotNil(t, d.LastActivityDate)
	assert.Len(t, d.WeeklyStats, 1)

	s := Summarize(usr, nil, 3)
	assert.Equal(t, 0.0, s.AverageScore)
	assert.Nil(t, s.LastActivityDate)
}
