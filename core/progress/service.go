package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("progress not found")
	ErrAlreadySubmitted = errors.New("Quiz already submitted")
)

// Repository is the data access to progress records.
type Repository interface {
	GetProgress(ctx context.Context, userID, assignmentID int) (Progress, error)
	// QueryUserProgress returns the records of a user with their assignment summary, latest submission first.
	QueryUserProgress(ctx context.Context, userID int) ([]Progress, error)
	// SaveCompleted inserts p, or overwrites the existing non-completed record of the same pair.
	// It returns ErrAlreadySubmitted if the pair is already completed.
	SaveCompleted(ctx context.Context, p Progress) (Progress, error)
}

type (
	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
		Team(ctx context.Context, managerID int) ([]user.User, error)
	}

	AssignmentCounter interface {
		CountActive(ctx context.Context) (int, error)
	}
)

type Service struct {
	repo    Repository
	users   UserFinder
	counter AssignmentCounter
}

func NewService(repo Repository, users UserFinder, counter AssignmentCounter) *Service {
	return &Service{repo: repo, users: users, counter: counter}
}

// TeamReport returns one report per member of the manager's team.
func (svc *Service) TeamReport(ctx context.Context, managerID int) ([]UserReport, error) {
	team, err := svc.users.Team(ctx, managerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying team")
	}
	total, err := svc.counter.CountActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting assignments")
	}

	reports := make([]UserReport, 0, len(team))
	for _, usr := range team {
		progresses, err := svc.repo.QueryUserProgress(ctx, usr.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "querying progress of user %d", usr.ID)
		}
		reports = append(reports, BuildReport(usr, progresses, total))
	}
	return reports, nil
}

// UserReport returns user.ErrNotFound for unknown users.
func (svc *Service) UserReport(ctx context.Context, userID int) (UserReport, error) {
	usr, progresses, total, err := svc.load(ctx, userID)
	if err != nil {
		return UserReport{}, err
	}
	return BuildReport(usr, progresses, total), nil
}

func (svc *Service) LearnerDetail(ctx context.Context, userID int) (LearnerDetail, error) {
	usr, progresses, total, err := svc.load(ctx, userID)
	if err != nil {
		return LearnerDetail{}, err
	}
	return BuildDetail(usr, progresses, total), nil
}

// Learners summarizes every member of the manager's team.
func (svc *Service) Learners(ctx context.Context, managerID int) ([]LearnerSummary, error) {
	reports, err := svc.TeamReport(ctx, managerID)
	if err != nil {
		return nil, err
	}
	summaries := make([]LearnerSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, Summarize(r.User, r.Progresses, r.TotalAssignments))
	}
	return summaries, nil
}

func (svc *Service) UserProgresses(ctx context.Context, userID int) ([]Progress, error) {
	progresses, err := svc.repo.QueryUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progresses == nil {
		progresses = []Progress{}
	}
	return progresses, nil
}

func (svc *Service) AssignmentProgress(ctx context.Context, userID, assignmentID int) (Progress, error) {
	return svc.repo.GetProgress(ctx, userID, assignmentID)
}

func (svc *Service) load(ctx context.Context, userID int) (user.User, []Progress, int, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, nil, 0, err
	}
	progresses, err := svc.repo.QueryUserProgress(ctx, userID)
	if err != nil {
		return user.User{}, nil, 0, errors.Wrap(err, "querying progress")
	}
	total, err := svc.counter.CountActive(ctx)
	if err != nil {
		return user.User{}, nil, 0, errors.Wrap(err, "counting assignments")
	}
	return usr, progresses, total, nil
}
