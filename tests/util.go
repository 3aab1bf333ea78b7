package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
)

// NewValidator returns a validator with every custom validation and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	role user.Role,
	managerID *int,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		RoleID:    role,
		ManagerID: managerID,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateAssignment stores an active assignment whose n questions all expect `answer`.
func CreateAssignment(t *testing.T, repo assignment.Repository, title string, n int, answer string, createdAt ...time.Time) assignment.Assignment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	asg := assignment.Assignment{
		Title:     title,
		IsActive:  true,
		CreatedAt: tstamp,
	}
	for i := 0; i < n; i++ {
		asg.Questions = append(asg.Questions, assignment.Question{
			QuestionText:  title + " question " + strconv.Itoa(i+1),
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: answer,
		})
	}
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

// Answers maps the questions of asg, in order, to answers; extra questions stay unanswered.
func Answers(asg assignment.Assignment, answers ...string) map[int]string {
	m := make(map[int]string, len(answers))
	for i, q := range asg.Questions {
		if i >= len(answers) {
			break
		}
		m[q.ID] = answers[i]
	}
	return m
}

// CreateProgress stores a completed progress record submitted at `at`.
func CreateProgress(t *testing.T, repo progress.Repository, userID, assignmentID, score int, at time.Time) progress.Progress {
	at = at.UTC()
	p, err := repo.SaveCompleted(context.Background(), progress.Progress{
		UserID:       userID,
		AssignmentID: assignmentID,
		Score:        score,
		Status:       progress.StatusCompleted,
		SubmittedAt:  &at,
		Answers:      map[int]string{},
	})
	if err != nil {
		t.Fatalf("CreateProgress() failed: %v", err)
	}
	return p
}

func IntPtr(i int) *int { return &i }
