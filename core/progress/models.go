package progress

import (
	"time"

	"github.com/arnalearn/arna/core/user"
)

// Progress statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Progress is the one record per (user, assignment) pair.
type Progress struct {
	ID           int            `json:"id"`
	UserID       int            `json:"userId"`
	AssignmentID int            `json:"assignmentId"`
	Score        int            `json:"score"`
	Status       string         `json:"status"`
	SubmittedAt  *time.Time     `json:"submittedAt"` // UTC
	Answers      map[int]string `json:"answers"`
	Assignment   *Summary       `json:"assignment,omitempty"`
}

func (p Progress) IsCompleted() bool { return p.Status == StatusCompleted }

// Summary is the part of an assignment attached to progress records.
type Summary struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
}

type UserReport struct {
	User                 user.User  `json:"user"`
	Progresses           []Progress `json:"progresses"`
	CompletedAssignments int        `json:"completedAssignments"`
	TotalAssignments     int        `json:"totalAssignments"`
	AverageScore         float64    `json:"averageScore"`
}

type WeeklyStat struct {
	WeekStart      time.Time `json:"weekStart"`
	CompletedCount int       `json:"completedCount"`
	AverageScore   float64   `json:"averageScore"`
}

// LearnerDetail is a UserReport with activity over time.
type LearnerDetail struct {
	UserReport
	LastActivityDate *time.Time   `json:"lastActivityDate"`
	WeeklyStats      []WeeklyStat `json:"weeklyStats"`
}

// LearnerSummary is one row of a manager's learners overview.
type LearnerSummary struct {
	User                 user.User  `json:"user"`
	CompletedAssignments int        `json:"completedAssignments"`
	TotalAssignments     int        `json:"totalAssignments"`
	AverageScore         float64    `json:"averageScore"`
	LastActivityDate     *time.Time `json:"lastActivityDate"`
}
