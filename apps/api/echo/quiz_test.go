package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/arnalearn/arna/apps/api/echo"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/quiz"
	"github.com/arnalearn/arna/core/user"
	"github.com/arnalearn/arna/tests"
)

type pendingCreator interface {
	CreatePending(ctx context.Context, userID, assignmentID int) (progress.Progress, error)
}

// concurrentWinnerRepo completes the pair on behalf of another request right before saving.
type concurrentWinnerRepo struct {
	progress.Repository
}

func (r concurrentWinnerRepo) SaveCompleted(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	winner := p
	winner.Score = 0
	winner.Answers = map[int]string{}
	if _, err := r.Repository.SaveCompleted(ctx, winner); err != nil {
		return progress.Progress{}, err
	}
	return r.Repository.SaveCompleted(ctx, p)
}

func Test_quizApi(t *testing.T) {
	resetDB()

	mgr := testutil.CreateUser(t, usrRepo, "boss", "boss@test.com", "", user.RoleManager, nil)
	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, &mgr.ID)
	other := testutil.CreateUser(t, usrRepo, "other", "other@test.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, asgRepo, "Basics", 5, "A")
	empty := testutil.CreateAssignment(t, asgRepo, "Empty", 0, "")

	lrnToken := getToken(t, lrn)
	submit := func(assignmentID int, answers map[int]string) []byte {
		return marchallObj(t, SubmitQuizRequest{AssignmentID: assignmentID, Answers: answers})
	}
	answers := testutil.Answers(asg, "a", "A", "b", "A", "c")
	statusPath := fmt.Sprintf("/api/quiz/%d/status", asg.ID)
	answersPath := fmt.Sprintf("/api/quiz/%d/answers", asg.ID)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/api/quiz/submit", body: submit(asg.ID, answers),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Assignment required", method: http.MethodPost, path: "/api/quiz/submit", body: []byte(`{"answers": {}}`),
			token: lrnToken, wantCode: http.StatusBadRequest,
		},
		{name: "status (before)", path: statusPath, token: lrnToken, wantData: marchallObj(t, SubmissionStatusResponse{})},
		{
			name: "answers (before)", path: answersPath, token: lrnToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: progress.ErrNotFound.Error()}),
		},
		{
			name: "no questions", method: http.MethodPost, path: "/api/quiz/submit", body: submit(empty.ID, nil), token: lrnToken,
			wantData: marchallObj(t, quiz.Result{Message: quiz.MsgNoQuestions}),
		},
		{
			name: "unknown assignment", method: http.MethodPost, path: "/api/quiz/submit", body: submit(999, nil), token: lrnToken,
			wantData: marchallObj(t, quiz.Result{Message: quiz.MsgNoQuestions}),
		},
		{
			name: "submitted (mixed case)", method: http.MethodPost, path: "/api/quiz/submit", body: submit(asg.ID, answers), token: lrnToken,
			wantData: marchallObj(t, quiz.Result{Score: 60, Message: quiz.MsgSubmitted}),
		},
		{name: "status (after)", path: statusPath, token: lrnToken, wantData: marchallObj(t, SubmissionStatusResponse{HasSubmitted: true})},
		{name: "answers (after)", path: answersPath, token: lrnToken, wantData: marchallObj(t, answers)},
		{
			name: "already submitted", method: http.MethodPost, path: "/api/quiz/submit",
			body: submit(asg.ID, testutil.Answers(asg, "A", "A", "A", "A", "A")), token: lrnToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: quiz.MsgAlreadySubmitted}),
		},
		{name: "status is per user", path: statusPath, token: getToken(t, other), wantData: marchallObj(t, SubmissionStatusResponse{})},
	}
	runTests(t, tests)

	t.Run("stored score unchanged", func(t *testing.T) {
		p, err := progRepo.GetProgress(context.Background(), lrn.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, p.Score)
		assert.Equal(t, progress.StatusCompleted, p.Status)
		assert.NotNil(t, p.SubmittedAt)
	})

	t.Run("manager notified", func(t *testing.T) {
		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, mgr.Email, sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "learner")
		assert.Contains(t, sent[0].TextContent, "60")
	})
}

func Test_quizApi_pending(t *testing.T) {
	resetDB()

	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, asgRepo, "Basics", 5, "A")
	_, err := progRepo.(pendingCreator).CreatePending(context.Background(), lrn.ID, asg.ID)
	require.NoError(t, err)
	lrnToken := getToken(t, lrn)

	tests := []httpTest{
		{name: "pending is not submitted", path: fmt.Sprintf("/api/quiz/%d/status", asg.ID), token: lrnToken, wantData: marchallObj(t, SubmissionStatusResponse{})},
		{
			name: "pending is overwritten", method: http.MethodPost, path: "/api/quiz/submit", token: lrnToken,
			body:     marchallObj(t, SubmitQuizRequest{AssignmentID: asg.ID, Answers: testutil.Answers(asg, "A", "A", "A", "A", "A")}),
			wantData: marchallObj(t, quiz.Result{Score: 100, Message: quiz.MsgSubmitted}),
		},
	}
	runTests(t, tests)

	progresses, err := progRepo.QueryUserProgress(context.Background(), lrn.ID)
	require.NoError(t, err)
	require.Len(t, progresses, 1)
	assert.Equal(t, 100, progresses[0].Score)
}

func Test_quizApi_concurrentSubmission(t *testing.T) {
	resetDB()

	lrn := testutil.CreateUser(t, usrRepo, "learner", "learner@test.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, asgRepo, "Basics", 5, "A")
	srv := newTestServer(concurrentWinnerRepo{progRepo})

	body := marchallObj(t, SubmitQuizRequest{AssignmentID: asg.ID, Answers: testutil.Answers(asg, "A", "A", "A", "A", "A")})
	req, rec := newAuthRequest(http.MethodPost, "/api/quiz/submit", getToken(t, lrn), body)
	srv.ServeHTTP(rec, req)

	checkCode(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, httpErr{Message: quiz.MsgAlreadySubmitted}))
	require.NoError(t, err)
	assert.True(t, ok, "body %s", rec.Body.String())

	p, err := progRepo.GetProgress(context.Background(), lrn.ID, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Score, "the concurrent winner's score is kept")
}
