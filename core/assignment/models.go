package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/arnalearn/arna/core"
)

type Assignment struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MaterialURL *string    `json:"materialUrl"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"` // UTC
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID            int      `json:"id"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	AssignmentID  int      `json:"assignmentId"`
}

// WithoutAnswers returns a copy of a safe to show to learners.
func (a Assignment) WithoutAnswers() Assignment {
	a.Questions = HideAnswers(a.Questions)
	return a
}

func HideAnswers(questions []Question) []Question {
	hidden := make([]Question, len(questions))
	for i, q := range questions {
		q.CorrectAnswer = ""
		hidden[i] = q
	}
	return hidden
}

type NewQuestion struct {
	QuestionText  string   `json:"questionText" yaml:"questionText" validate:"required,notblank"`
	Options       []string `json:"options" yaml:"options" validate:"omitempty,dive,notblank"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer" validate:"required,notblank"`
}

func (nq *NewQuestion) clean() {
	nq.QuestionText = core.CleanString(nq.QuestionText)
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string        `json:"title" yaml:"title" validate:"required,notblank,max=200"`
	Description string        `json:"description" yaml:"description"`
	MaterialURL *string       `json:"materialUrl" yaml:"materialUrl" validate:"omitempty,url"`
	Questions   []NewQuestion `json:"questions" yaml:"questions" validate:"dive"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.MaterialURL = cleanURL(na.MaterialURL)
	for i := range na.Questions {
		na.Questions[i].clean()
	}
	return validate.Struct(na)
}

// UpdateAssignment replaces every editable field of an Assignment, including its questions.
type UpdateAssignment struct {
	ID          int           `json:"id"`
	Title       string        `json:"title" validate:"required,notblank,max=200"`
	Description string        `json:"description"`
	MaterialURL *string       `json:"materialUrl" validate:"omitempty,url"`
	IsActive    *bool         `json:"isActive"`
	Questions   []NewQuestion `json:"questions" validate:"dive"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	ua.MaterialURL = cleanURL(ua.MaterialURL)
	for i := range ua.Questions {
		ua.Questions[i].clean()
	}
	return validate.Struct(ua)
}

func cleanURL(u *string) *string {
	if u == nil {
		return nil
	}
	s := core.CleanString(*u)
	if s == "" {
		return nil
	}
	return &s
}

func toQuestions(nqs []NewQuestion, assignmentID int) []Question {
	questions := make([]Question, 0, len(nqs))
	for _, nq := range nqs {
		opts := nq.Options
		if opts == nil {
			opts = []string{}
		}
		questions = append(questions, Question{
			QuestionText:  nq.QuestionText,
			Options:       opts,
			CorrectAnswer: nq.CorrectAnswer,
			AssignmentID:  assignmentID,
		})
	}
	return questions
}
