package quiz

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
)

// Result messages
const (
	MsgSubmitted        = "Quiz submitted successfully"
	MsgAlreadySubmitted = "Quiz already submitted"
	MsgNoQuestions      = "No questions found for this assignment"
)

type Result struct {
	Score   int    `json:"score"`
	Message string `json:"message"`
}

type (
	QuestionFinder interface {
		Get(ctx context.Context, id int) (assignment.Assignment, error)
	}

	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}
)

type Options struct {
	PointsPerQuestion  int
	NotifyOnSubmission bool
}

type Service struct {
	repo        progress.Repository
	assignments QuestionFinder
	users       UserFinder
	mailSvc     core.EmailService
	logger      core.Logger
	opts        Options
}

func NewService(
	repo progress.Repository,
	assignments QuestionFinder,
	users UserFinder,
	mailSvc core.EmailService,
	logger core.Logger,
	opts Options,
) *Service {
	if opts.PointsPerQuestion <= 0 {
		opts.PointsPerQuestion = DefaultPointsPerQuestion
	}
	return &Service{
		repo:        repo,
		assignments: assignments,
		users:       users,
		mailSvc:     mailSvc,
		logger:      logger,
		opts:        opts,
	}
}

// Submit scores the answers of a user and records the completed attempt.
// A pair already completed keeps its stored score. A lost concurrent submission returns progress.ErrAlreadySubmitted.
func (svc *Service) Submit(ctx context.Context, userID, assignmentID int, answers map[int]string) (Result, error) {
	existing, err := svc.repo.GetProgress(ctx, userID, assignmentID)
	switch {
	case err == nil && existing.IsCompleted():
		return Result{Score: existing.Score, Message: MsgAlreadySubmitted}, nil
	case err != nil && errors.Cause(err) != progress.ErrNotFound:
		return Result{}, errors.Wrap(err, "finding progress")
	}

	asg, err := svc.assignments.Get(ctx, assignmentID)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return Result{Message: MsgNoQuestions}, nil
		}
		return Result{}, errors.Wrap(err, "finding assignment")
	}
	if len(asg.Questions) == 0 {
		return Result{Message: MsgNoQuestions}, nil
	}

	if answers == nil {
		answers = map[int]string{}
	}
	now := time.Now().UTC()
	p := progress.Progress{
		UserID:       userID,
		AssignmentID: assignmentID,
		Score:        Score(asg.Questions, answers, svc.opts.PointsPerQuestion),
		Status:       progress.StatusCompleted,
		SubmittedAt:  &now,
		Answers:      answers,
	}
	if p, err = svc.repo.SaveCompleted(ctx, p); err != nil {
		if errors.Cause(err) == progress.ErrAlreadySubmitted {
			return Result{}, progress.ErrAlreadySubmitted
		}
		return Result{}, errors.Wrap(err, "saving progress")
	}

	svc.notifyManager(ctx, userID, asg, p.Score)
	return Result{Score: p.Score, Message: MsgSubmitted}, nil
}

// notifyManager emails the learner's manager. Failures are logged, never returned.
func (svc *Service) notifyManager(ctx context.Context, userID int, asg assignment.Assignment, score int) {
	if !svc.opts.NotifyOnSubmission || svc.mailSvc == nil {
		return
	}
	learner, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		svc.warn(fmt.Sprintf("quiz: finding learner %d: %v", userID, err), err)
		return
	}
	if learner.ManagerID == nil {
		return
	}
	mgr, err := svc.users.GetByID(ctx, *learner.ManagerID)
	if err != nil {
		svc.warn(fmt.Sprintf("quiz: finding manager %d: %v", *learner.ManagerID, err), err)
		return
	}
	if mgr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: mgr.Username, Address: mgr.Email}},
		Subject:      learner.Username + " completed " + asg.Title,
		TemplateName: "quiz_submitted",
		TemplateData: map[string]interface{}{
			"Manager":    mgr.Username,
			"Learner":    learner.Username,
			"Assignment": asg.Title,
			"Score":      score,
		},
	})
}

func (svc *Service) warn(msg string, err error) {
	if svc.logger != nil {
		svc.logger.Warn(msg, err)
	}
}

// HasSubmitted reports whether the user completed the assignment.
func (svc *Service) HasSubmitted(ctx context.Context, userID, assignmentID int) (bool, error) {
	p, err := svc.repo.GetProgress(ctx, userID, assignmentID)
	if err != nil {
		if errors.Cause(err) == progress.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return p.IsCompleted(), nil
}

// Answers returns the stored answers of any progress record of the pair, or progress.ErrNotFound.
func (svc *Service) Answers(ctx context.Context, userID, assignmentID int) (map[int]string, error) {
	p, err := svc.repo.GetProgress(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	if p.Answers == nil {
		return map[int]string{}, nil
	}
	return p.Answers, nil
}

// UserScore returns the stored score of the pair, 0 if none.
func (svc *Service) UserScore(ctx context.Context, userID, assignmentID int) (int, error) {
	p, err := svc.repo.GetProgress(ctx, userID, assignmentID)
	if err != nil {
		if errors.Cause(err) == progress.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return p.Score, nil
}
