package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/arnalearn/arna/core/progress"
)

type progressRow struct {
	ID              int            `db:"id"`
	UserID          int            `db:"user_id"`
	AssignmentID    int            `db:"assignment_id"`
	Score           int            `db:"score"`
	Status          string         `db:"status"`
	SubmittedAt     null.Time      `db:"submitted_at"`
	Answers         types.JSONText `db:"answers"`
	AssignmentTitle string         `db:"assignment_title"`
	AssignmentAct   bool           `db:"assignment_is_active"`
}

func (r progressRow) toProgress() (progress.Progress, error) {
	p := progress.Progress{
		ID:           r.ID,
		UserID:       r.UserID,
		AssignmentID: r.AssignmentID,
		Score:        r.Score,
		Status:       r.Status,
		Answers:      map[int]string{},
		Assignment:   &progress.Summary{ID: r.AssignmentID, Title: r.AssignmentTitle, IsActive: r.AssignmentAct},
	}
	if r.SubmittedAt.Valid {
		t := r.SubmittedAt.Time.UTC()
		p.SubmittedAt = &t
	}
	if len(r.Answers) > 0 {
		if err := r.Answers.Unmarshal(&p.Answers); err != nil {
			return progress.Progress{}, errors.Wrap(err, "decoding answers")
		}
	}
	return p, nil
}

const progressSelect = `SELECT p.id, p.user_id, p.assignment_id, p.score, p.status, p.submitted_at, p.answers,
		a.title AS assignment_title, a.is_active AS assignment_is_active
	FROM assignment_progress p
	JOIN assignment a ON a.id = p.assignment_id`

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) GetProgress(ctx context.Context, userID, assignmentID int) (progress.Progress, error) {
	var row progressRow
	q := progressSelect + " WHERE p.user_id = $1 AND p.assignment_id = $2"
	if err := repo.db.GetContext(ctx, &row, q, userID, assignmentID); err != nil {
		return progress.Progress{}, trapNoRowsErr(err, progress.ErrNotFound)
	}
	return row.toProgress()
}

func (repo progressRepository) QueryUserProgress(ctx context.Context, userID int) ([]progress.Progress, error) {
	var rows []progressRow
	q := progressSelect + " WHERE p.user_id = $1 ORDER BY p.submitted_at DESC NULLS LAST, p.id DESC"
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	progresses := make([]progress.Progress, 0, len(rows))
	for _, r := range rows {
		p, err := r.toProgress()
		if err != nil {
			return nil, err
		}
		progresses = append(progresses, p)
	}
	return progresses, nil
}

// SaveCompleted upserts in a single statement; the conditional update leaves completed records untouched,
// so a losing concurrent writer gets no row back.
func (repo progressRepository) SaveCompleted(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	const q = `INSERT INTO assignment_progress (user_id, assignment_id, score, status, submitted_at, answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, assignment_id) DO UPDATE
		SET score = EXCLUDED.score, status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at, answers = EXCLUDED.answers
		WHERE assignment_progress.status <> 'completed'
		RETURNING id`

	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return progress.Progress{}, errors.Wrap(err, "encoding answers")
	}
	err = repo.db.QueryRowxContext(
		ctx, q, p.UserID, p.AssignmentID, p.Score, p.Status, null.TimeFromPtr(p.SubmittedAt), types.JSONText(answers),
	).Scan(&p.ID)
	if err == sql.ErrNoRows {
		return progress.Progress{}, progress.ErrAlreadySubmitted
	}
	if err != nil {
		return progress.Progress{}, errors.Wrap(err, "saving progress")
	}
	return p, nil
}
