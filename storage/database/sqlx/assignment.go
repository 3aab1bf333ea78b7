package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/arnalearn/arna/core/assignment"
)

type assignmentRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	MaterialURL null.String `db:"material_url"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r assignmentRow) toAssignment(questions []assignment.Question) assignment.Assignment {
	if questions == nil {
		questions = []assignment.Question{}
	}
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		MaterialURL: r.MaterialURL.Ptr(),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		Questions:   questions,
	}
}

type questionRow struct {
	ID            int            `db:"id"`
	AssignmentID  int            `db:"assignment_id"`
	QuestionText  string         `db:"question_text"`
	Options       pq.StringArray `db:"options"`
	CorrectAnswer string         `db:"correct_answer"`
}

func (r questionRow) toQuestion() assignment.Question {
	opts := []string(r.Options)
	if opts == nil {
		opts = []string{}
	}
	return assignment.Question{
		ID:            r.ID,
		QuestionText:  r.QuestionText,
		Options:       opts,
		CorrectAnswer: r.CorrectAnswer,
		AssignmentID:  r.AssignmentID,
	}
}

const (
	assignmentColumns = "id, title, description, material_url, is_active, created_at"
	questionColumns   = "id, assignment_id, question_text, options, correct_answer"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	q := "SELECT " + assignmentColumns + " FROM assignment ORDER BY created_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	if len(rows) == 0 {
		return []assignment.Assignment{}, nil
	}

	ids := make(pq.Int64Array, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, int64(r.ID))
	}
	var qRows []questionRow
	q = "SELECT " + questionColumns + " FROM question WHERE assignment_id = ANY($1) ORDER BY id ASC"
	if err := repo.db.SelectContext(ctx, &qRows, q, ids); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	byAssignment := make(map[int][]assignment.Question, len(rows))
	for _, qr := range qRows {
		byAssignment[qr.AssignmentID] = append(byAssignment[qr.AssignmentID], qr.toQuestion())
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.toAssignment(byAssignment[r.ID]))
	}
	return asgs, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id int) (assignment.Assignment, error) {
	var row assignmentRow
	q := "SELECT " + assignmentColumns + " FROM assignment WHERE id = $1"
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound)
	}
	questions, err := repo.QueryQuestions(ctx, id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return row.toAssignment(questions), nil
}

func (repo assignmentRepository) QueryQuestions(ctx context.Context, assignmentID int) ([]assignment.Question, error) {
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM question WHERE assignment_id = $1 ORDER BY id ASC"
	if err := repo.db.SelectContext(ctx, &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	questions := make([]assignment.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.toQuestion())
	}
	return questions, nil
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, assignmentID int, questions []assignment.Question) ([]assignment.Question, error) {
	const q = `INSERT INTO question (assignment_id, question_text, options, correct_answer)
		VALUES ($1, $2, $3, $4) RETURNING id`

	inserted := make([]assignment.Question, 0, len(questions))
	for _, qst := range questions {
		qst.AssignmentID = assignmentID
		err := tx.QueryRowxContext(ctx, q, assignmentID, qst.QuestionText, pq.StringArray(qst.Options), qst.CorrectAnswer).
			Scan(&qst.ID)
		if err != nil {
			return nil, errors.Wrap(err, "inserting question")
		}
		inserted = append(inserted, qst)
	}
	return inserted, nil
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	const q = `INSERT INTO assignment (title, description, material_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx, q, asg.Title, asg.Description, null.StringFromPtr(asg.MaterialURL), asg.IsActive, asg.CreatedAt.UTC(),
		).Scan(&asg.ID)
		if err != nil {
			return errors.Wrap(err, "inserting assignment")
		}
		asg.Questions, err = insertQuestions(ctx, tx, asg.ID, asg.Questions)
		return err
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	const q = `UPDATE assignment SET title = $2, description = $3, material_url = $4, is_active = $5 WHERE id = $1`

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, asg.ID, asg.Title, asg.Description, null.StringFromPtr(asg.MaterialURL), asg.IsActive)
		if err != nil {
			return errors.Wrap(err, "updating assignment")
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return assignment.ErrNotFound
		}

		if _, err = tx.ExecContext(ctx, "DELETE FROM question WHERE assignment_id = $1", asg.ID); err != nil {
			return errors.Wrap(err, "deleting questions")
		}
		asg.Questions, err = insertQuestions(ctx, tx, asg.ID, asg.Questions)
		return err
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM assignment WHERE id = $1", id)
	if err != nil {
		if code, _ := pqError(err); code == foreignKeyViolation {
			return assignment.ErrInUse
		}
		return errors.Wrap(err, "deleting assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func (repo assignmentRepository) CountActiveAssignments(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM assignment WHERE is_active")
	return n, errors.Wrap(err, "counting assignments")
}
