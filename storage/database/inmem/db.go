// Package inmemdb keeps every table in process memory. It enforces the same
// uniqueness and referential rules as the postgres schema.
package inmemdb

import (
	"sync"

	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[int]user.User
	assignments map[int]assignment.Assignment // without questions
	questions   map[int]assignment.Question
	progresses  map[int]progress.Progress

	userSeq, assignmentSeq, questionSeq, progressSeq int
}

func Open() *DB {
	return &DB{
		users:       make(map[int]user.User),
		assignments: make(map[int]assignment.Assignment),
		questions:   make(map[int]assignment.Question),
		progresses:  make(map[int]progress.Progress),
	}
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = make(map[int]user.User)
	db.assignments = make(map[int]assignment.Assignment)
	db.questions = make(map[int]assignment.Question)
	db.progresses = make(map[int]progress.Progress)
	db.userSeq, db.assignmentSeq, db.questionSeq, db.progressSeq = 0, 0, 0, 0
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	return c
}
