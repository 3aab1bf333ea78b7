package echoapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/user"
	"github.com/arnalearn/arna/tests"
)

func Test_assignmentApi_read(t *testing.T) {
	resetDB()

	mgr := testutil.CreateUser(t, usrRepo, "boss", "boss@test.com", "", user.RoleManager, nil)
	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, &mgr.ID)

	now := time.Now()
	older := testutil.CreateAssignment(t, asgRepo, "Older", 2, "A", now.Add(-time.Hour))
	newer := testutil.CreateAssignment(t, asgRepo, "Newer", 3, "B", now)
	empty := testutil.CreateAssignment(t, asgRepo, "Empty", 0, "", now.Add(-2*time.Hour))

	mgrToken := getToken(t, mgr)
	lrnToken := getToken(t, lrn)
	errAsgNotFound := marchallObj(t, httpErr{Message: assignment.ErrNotFound.Error()})

	tests := []httpTest{
		{name: "Auth required", path: "/api/assignment", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "list (manager)", path: "/api/assignment", token: mgrToken, wantData: marchallList(t, newer, older, empty)},
		{
			name: "list (learner): answers hidden", path: "/api/assignment", token: lrnToken,
			wantData: marchallList(t, newer.WithoutAnswers(), older.WithoutAnswers(), empty.WithoutAnswers()),
		},
		{name: "retrieve (manager)", path: fmt.Sprintf("/api/assignment/%d", older.ID), token: mgrToken, wantData: marchallObj(t, older)},
		{
			name: "retrieve (learner)", path: fmt.Sprintf("/api/assignment/%d", older.ID), token: lrnToken,
			wantData: marchallObj(t, older.WithoutAnswers()),
		},
		{name: "retrieve unknown", path: "/api/assignment/999", token: lrnToken, wantCode: http.StatusNotFound, wantData: errAsgNotFound},
		{name: "retrieve not an id", path: "/api/assignment/abc", token: lrnToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "questions (manager)", path: fmt.Sprintf("/api/assignment/%d/questions", newer.ID), token: mgrToken,
			wantData: marchallObj(t, newer.Questions),
		},
		{
			name: "questions (learner)", path: fmt.Sprintf("/api/assignment/%d/questions", newer.ID), token: lrnToken,
			wantData: marchallObj(t, assignment.HideAnswers(newer.Questions)),
		},
		{name: "questions (none)", path: fmt.Sprintf("/api/assignment/%d/questions", empty.ID), token: lrnToken, wantData: marchallList(t)},
	}
	runTests(t, tests)

	t.Run("learner payload has no correctAnswer", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/assignment", lrnToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "correctAnswer")
	})
}

func Test_assignmentApi_create(t *testing.T) {
	resetDB()

	mgr := testutil.CreateUser(t, usrRepo, "boss", "boss@test.com", "", user.RoleManager, nil)
	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, &mgr.ID)
	mgrToken := getToken(t, mgr)

	valid := map[string]interface{}{
		"title":       "  Go basics ",
		"description": "The tour",
		"materialUrl": "https://go.dev/tour",
		"questions": []map[string]interface{}{
			{"questionText": "What does := do?", "options": []string{"declare", "compare"}, "correctAnswer": "declare"},
			{"questionText": "Zero value of int?", "correctAnswer": "0"},
		},
	}

	tests := []httpTest{
		{
			name: "Manager required", body: marchallObj(t, valid), token: getToken(t, lrn),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Title required", body: []byte(`{"title": "   "}`), token: mgrToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"message": "invalid request data",
				"fields":  map[string]string{"title": "this field is required"},
			}),
		},
		{
			name: "Bad material URL", body: []byte(`{"title": "T", "materialUrl": "not a url"}`), token: mgrToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Question without answer", body: []byte(`{"title": "T", "questions": [{"questionText": "Q?"}]}`), token: mgrToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/assignment"
	}
	runTests(t, tests)

	t.Run("Created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/assignment", mgrToken, marchallObj(t, valid))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var asg assignment.Assignment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asg))
		assert.NotZero(t, asg.ID)
		assert.Equal(t, "Go basics", asg.Title)
		assert.True(t, asg.IsActive)
		if assert.NotNil(t, asg.MaterialURL) {
			assert.Equal(t, "https://go.dev/tour", *asg.MaterialURL)
		}
		require.Len(t, asg.Questions, 2)
		assert.Equal(t, []string{"declare", "compare"}, asg.Questions[0].Options)
		assert.Equal(t, "declare", asg.Questions[0].CorrectAnswer)
		assert.Equal(t, []string{}, asg.Questions[1].Options)
		for _, q := range asg.Questions {
			assert.NotZero(t, q.ID)
			assert.Equal(t, asg.ID, q.AssignmentID)
		}

		stored, err := asgRepo.GetAssignment(context.Background(), asg.ID)
		require.NoError(t, err)
		assert.Equal(t, asg.Questions, stored.Questions)
	})
}

func Test_assignmentApi_update(t *testing.T) {
	resetDB()

	mgr := testutil.CreateUser(t, usrRepo, "boss", "boss@test.com", "", user.RoleManager, nil)
	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, &mgr.ID)
	asg := testutil.CreateAssignment(t, asgRepo, "Draft", 2, "A")
	mgrToken := getToken(t, mgr)
	path := fmt.Sprintf("/api/assignment/%d", asg.ID)

	update := func(id int, title string, active bool) []byte {
		return marchallObj(t, map[string]interface{}{
			"id":       id,
			"title":    title,
			"isActive": active,
			"questions": []map[string]interface{}{
				{"questionText": "Only question", "options": []string{"x", "y"}, "correctAnswer": "y"},
			},
		})
	}

	tests := []httpTest{
		{
			name: "Manager required", path: path, body: update(asg.ID, "Final", false), token: getToken(t, lrn),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "ID mismatch", path: path, body: update(asg.ID+1, "Final", false), token: mgrToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Assignment ID mismatch"}),
		},
		{
			name: "Unknown", path: "/api/assignment/999", body: update(0, "Final", false), token: mgrToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: assignment.ErrNotFound.Error()}),
		},
		{
			name: "Invalid", path: path, body: update(asg.ID, "", false), token: mgrToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPut
	}
	runTests(t, tests)

	t.Run("Updated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, mgrToken, update(asg.ID, "Final", false))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got assignment.Assignment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, asg.ID, got.ID)
		assert.Equal(t, "Final", got.Title)
		assert.False(t, got.IsActive)
		assert.True(t, asg.CreatedAt.Equal(got.CreatedAt))
		require.Len(t, got.Questions, 1)
		assert.Equal(t, "y", got.Questions[0].CorrectAnswer)

		n, err := asgRepo.CountActiveAssignments(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func Test_assignmentApi_delete(t *testing.T) {
	resetDB()

	mgr := testutil.CreateUser(t, usrRepo, "boss", "boss@test.com", "", user.RoleManager, nil)
	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, &mgr.ID)
	unused := testutil.CreateAssignment(t, asgRepo, "Unused", 2, "A")
	used := testutil.CreateAssignment(t, asgRepo, "Used", 2, "A")
	testutil.CreateProgress(t, progRepo, lrn.ID, used.ID, 40, time.Now())
	mgrToken := getToken(t, mgr)

	tests := []httpTest{
		{
			name: "Manager required", path: fmt.Sprintf("/api/assignment/%d", unused.ID), token: getToken(t, lrn),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown", path: "/api/assignment/999", token: mgrToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: assignment.ErrNotFound.Error()}),
		},
		{
			name: "In use", path: fmt.Sprintf("/api/assignment/%d", used.ID), token: mgrToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: assignment.ErrInUse.Error()}),
		},
		{name: "Deleted", path: fmt.Sprintf("/api/assignment/%d", unused.ID), token: mgrToken, wantCode: http.StatusNoContent},
		{
			name: "Deleted (gone)", path: fmt.Sprintf("/api/assignment/%d", unused.ID), token: mgrToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: assignment.ErrNotFound.Error()}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodDelete
	}
	runTests(t, tests)

	questions, err := asgRepo.QueryQuestions(context.Background(), unused.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)
}
