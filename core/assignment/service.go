package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
	ErrInUse    = errors.New("assignment has progress records and cannot be deleted")
)

// Repository is the data access needed by Service.
type Repository interface {
	// QueryAssignments returns every assignment with its questions, newest first.
	QueryAssignments(ctx context.Context) ([]Assignment, error)
	GetAssignment(ctx context.Context, id int) (Assignment, error)
	CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	// UpdateAssignment overwrites the assignment and replaces its questions.
	UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	// DeleteAssignment cascades to questions; it returns ErrInUse when progress references the assignment.
	DeleteAssignment(ctx context.Context, id int) error
	QueryQuestions(ctx context.Context, assignmentID int) ([]Question, error) // natural order
	CountActiveAssignments(ctx context.Context) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx)
}

func (svc *Service) Get(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// Create stores a new active Assignment. na must have been validated.
func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	asg := Assignment{
		Title:       na.Title,
		Description: na.Description,
		MaterialURL: na.MaterialURL,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		Questions:   toQuestions(na.Questions, 0),
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

// Update replaces the assignment fields and its whole question list. ua must have been validated.
func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	asg.Title = ua.Title
	asg.Description = ua.Description
	asg.MaterialURL = ua.MaterialURL
	if ua.IsActive != nil {
		asg.IsActive = *ua.IsActive
	}
	asg.Questions = toQuestions(ua.Questions, id)
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *Service) Questions(ctx context.Context, id int) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, id)
}

func (svc *Service) CountActive(ctx context.Context) (int, error) {
	return svc.repo.CountActiveAssignments(ctx)
}
