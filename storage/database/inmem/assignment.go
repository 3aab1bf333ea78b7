package inmemdb

import (
	"context"
	"sort"

	"github.com/arnalearn/arna/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// questionsOf must be called with the lock held.
func (r *assignmentRepository) questionsOf(assignmentID int) []assignment.Question {
	questions := make([]assignment.Question, 0)
	for _, q := range r.db.questions {
		if q.AssignmentID == assignmentID {
			q.Options = copyStrings(q.Options)
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}

// insertQuestions must be called with the write lock held.
func (r *assignmentRepository) insertQuestions(assignmentID int, questions []assignment.Question) []assignment.Question {
	inserted := make([]assignment.Question, 0, len(questions))
	for _, q := range questions {
		r.db.questionSeq++
		q.ID = r.db.questionSeq
		q.AssignmentID = assignmentID
		q.Options = copyStrings(q.Options)
		r.db.questions[q.ID] = q
		inserted = append(inserted, q)
	}
	return inserted
}

func (r *assignmentRepository) QueryAssignments(_ context.Context) ([]assignment.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	asgs := make([]assignment.Assignment, 0, len(r.db.assignments))
	for _, a := range r.db.assignments {
		a.Questions = r.questionsOf(a.ID)
		asgs = append(asgs, a)
	}
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].CreatedAt.Equal(asgs[j].CreatedAt) {
			return asgs[i].ID > asgs[j].ID
		}
		return asgs[i].CreatedAt.After(asgs[j].CreatedAt)
	})
	return asgs, nil
}

func (r *assignmentRepository) GetAssignment(_ context.Context, id int) (assignment.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.assignments[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	a.Questions = r.questionsOf(id)
	return a, nil
}

func (r *assignmentRepository) QueryQuestions(_ context.Context, assignmentID int) ([]assignment.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.questionsOf(assignmentID), nil
}

func (r *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.assignmentSeq++
	asg.ID = r.db.assignmentSeq
	questions := asg.Questions
	asg.Questions = nil
	r.db.assignments[asg.ID] = asg
	asg.Questions = r.insertQuestions(asg.ID, questions)
	return asg, nil
}

func (r *assignmentRepository) UpdateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.assignments[asg.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	for id, q := range r.db.questions {
		if q.AssignmentID == asg.ID {
			delete(r.db.questions, id)
		}
	}
	questions := asg.Questions
	asg.Questions = nil
	asg.CreatedAt = orig.CreatedAt
	r.db.assignments[asg.ID] = asg
	asg.Questions = r.insertQuestions(asg.ID, questions)
	return asg, nil
}

func (r *assignmentRepository) DeleteAssignment(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[id]; !ok {
		return assignment.ErrNotFound
	}
	for _, p := range r.db.progresses {
		if p.AssignmentID == id {
			return assignment.ErrInUse
		}
	}
	for qid, q := range r.db.questions {
		if q.AssignmentID == id {
			delete(r.db.questions, qid)
		}
	}
	delete(r.db.assignments, id)
	return nil
}

func (r *assignmentRepository) CountActiveAssignments(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int
	for _, a := range r.db.assignments {
		if a.IsActive {
			n++
		}
	}
	return n, nil
}
