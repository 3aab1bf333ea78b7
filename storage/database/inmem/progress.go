package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

// withAssignment must be called with the lock held.
func (r *progressRepository) withAssignment(p progress.Progress) progress.Progress {
	answers := make(map[int]string, len(p.Answers))
	for k, v := range p.Answers {
		answers[k] = v
	}
	p.Answers = answers
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		p.SubmittedAt = &t
	}
	a := r.db.assignments[p.AssignmentID]
	p.Assignment = &progress.Summary{ID: a.ID, Title: a.Title, IsActive: a.IsActive}
	return p
}

func (r *progressRepository) GetProgress(_ context.Context, userID, assignmentID int) (progress.Progress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, p := range r.db.progresses {
		if p.UserID == userID && p.AssignmentID == assignmentID {
			return r.withAssignment(p), nil
		}
	}
	return progress.Progress{}, progress.ErrNotFound
}

func (r *progressRepository) QueryUserProgress(_ context.Context, userID int) ([]progress.Progress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	progresses := make([]progress.Progress, 0)
	for _, p := range r.db.progresses {
		if p.UserID == userID {
			progresses = append(progresses, r.withAssignment(p))
		}
	}
	sort.Slice(progresses, func(i, j int) bool {
		a, b := progresses[i], progresses[j]
		switch {
		case a.SubmittedAt == nil && b.SubmittedAt == nil:
			return a.ID > b.ID
		case a.SubmittedAt == nil:
			return false
		case b.SubmittedAt == nil:
			return true
		case a.SubmittedAt.Equal(*b.SubmittedAt):
			return a.ID > b.ID
		}
		return a.SubmittedAt.After(*b.SubmittedAt)
	})
	return progresses, nil
}

func (r *progressRepository) SaveCompleted(_ context.Context, p progress.Progress) (progress.Progress, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[p.UserID]; !ok {
		return progress.Progress{}, errors.Errorf("user %d does not exist", p.UserID)
	}
	if _, ok := r.db.assignments[p.AssignmentID]; !ok {
		return progress.Progress{}, errors.Errorf("assignment %d does not exist", p.AssignmentID)
	}

	for id, existing := range r.db.progresses {
		if existing.UserID == p.UserID && existing.AssignmentID == p.AssignmentID {
			if existing.IsCompleted() {
				return progress.Progress{}, progress.ErrAlreadySubmitted
			}
			p.ID = id
			p.Assignment = nil
			r.db.progresses[id] = r.withAssignment(p)
			return p, nil
		}
	}

	r.db.progressSeq++
	p.ID = r.db.progressSeq
	p.Assignment = nil
	r.db.progresses[p.ID] = r.withAssignment(p)
	return p, nil
}

// CreatePending stores a non-completed record, as left by a started but unsubmitted quiz.
func (r *progressRepository) CreatePending(_ context.Context, userID, assignmentID int) (progress.Progress, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.progresses {
		if existing.UserID == userID && existing.AssignmentID == assignmentID {
			return progress.Progress{}, errors.New("progress already exists")
		}
	}
	r.db.progressSeq++
	p := progress.Progress{
		ID:           r.db.progressSeq,
		UserID:       userID,
		AssignmentID: assignmentID,
		Status:       progress.StatusPending,
		Answers:      map[int]string{},
	}
	r.db.progresses[p.ID] = p
	return r.withAssignment(p), nil
}
