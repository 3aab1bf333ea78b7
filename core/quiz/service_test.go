package quiz_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/quiz"
	"github.com/arnalearn/arna/core/user"
	email "github.com/arnalearn/arna/services/email"
	inmemdb "github.com/arnalearn/arna/storage/database/inmem"
	testutil "github.com/arnalearn/arna/tests"
)

type fixture struct {
	db       *inmemdb.DB
	usrRepo  user.Repository
	asgRepo  assignment.Repository
	progRepo progress.Repository
	mailSvc  *email.ConsoleServiceMock
}

func newFixture() fixture {
	db := inmemdb.Open()
	return fixture{
		db:       db,
		usrRepo:  inmemdb.NewUserRepository(db),
		asgRepo:  inmemdb.NewAssignmentRepository(db),
		progRepo: inmemdb.NewProgressRepository(db),
		mailSvc:  email.NewConsoleServiceMock(&core.Config{AppName: "Arna", FrontendBaseURL: "http://localhost:3000"}),
	}
}

func (f fixture) service(repo progress.Repository, opts quiz.Options) *quiz.Service {
	return quiz.NewService(repo, assignment.NewService(f.asgRepo), user.NewService(f.usrRepo, nil), f.mailSvc, nil, opts)
}

// lostRaceRepo lets a concurrent submission complete the pair between lookup and save.
type lostRaceRepo struct {
	progress.Repository
}

func (r lostRaceRepo) SaveCompleted(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	winner := p
	winner.Score = 0
	winner.Answers = map[int]string{}
	if _, err := r.Repository.SaveCompleted(ctx, winner); err != nil {
		return progress.Progress{}, err
	}
	return r.Repository.SaveCompleted(ctx, p)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(f.progRepo, quiz.Options{NotifyOnSubmission: true})

	mgr := testutil.CreateUser(t, f.usrRepo, "boss", "boss@example.com", "", user.RoleManager, nil)
	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, &mgr.ID)
	asg := testutil.CreateAssignment(t, f.asgRepo, "Capitals", 5, "A")
	empty := testutil.CreateAssignment(t, f.asgRepo, "Empty", 0, "")

	t.Run("no questions", func(t *testing.T) {
		res, err := svc.Submit(ctx, jane.ID, empty.ID, map[int]string{})
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{Score: 0, Message: quiz.MsgNoQuestions}, res)

		submitted, err := svc.HasSubmitted(ctx, jane.ID, empty.ID)
		require.NoError(t, err)
		assert.False(t, submitted)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		res, err := svc.Submit(ctx, jane.ID, 9999, map[int]string{1: "A"})
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{Score: 0, Message: quiz.MsgNoQuestions}, res)
	})

	t.Run("submitted", func(t *testing.T) {
		res, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "a", "A", "b", "A", "c"))
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{Score: 60, Message: quiz.MsgSubmitted}, res)

		p, err := f.progRepo.GetProgress(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		assert.True(t, p.IsCompleted())
		assert.Equal(t, 60, p.Score)
		require.NotNil(t, p.SubmittedAt)
		assert.Len(t, p.Answers, 5)

		sent := f.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "boss@example.com", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "jane")
	})

	t.Run("second submission keeps stored score", func(t *testing.T) {
		res, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "A", "A", "A", "A", "A"))
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{Score: 60, Message: quiz.MsgAlreadySubmitted}, res)

		score, err := svc.UserScore(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, score)
		assert.Len(t, f.mailSvc.Sent(), 1)
	})

	t.Run("answers", func(t *testing.T) {
		answers, err := svc.Answers(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, "a", answers[asg.Questions[0].ID])

		_, err = svc.Answers(ctx, mgr.ID, asg.ID)
		assert.Equal(t, progress.ErrNotFound, err)

		score, err := svc.UserScore(ctx, mgr.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, score)
	})
}

func TestService_SubmitOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mgr := testutil.CreateUser(t, f.usrRepo, "boss", "boss@example.com", "", user.RoleManager, nil)
	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, &mgr.ID)
	loner := testutil.CreateUser(t, f.usrRepo, "loner", "loner@example.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, f.asgRepo, "Rivers", 4, "B")

	svc := f.service(f.progRepo, quiz.Options{PointsPerQuestion: 25, NotifyOnSubmission: true})

	t.Run("custom points", func(t *testing.T) {
		res, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "B", "B", "B", "B"))
		require.NoError(t, err)
		assert.Equal(t, 100, res.Score)
		assert.Len(t, f.mailSvc.Sent(), 1)
	})

	t.Run("learner without manager", func(t *testing.T) {
		f.mailSvc.Reset()
		res, err := svc.Submit(ctx, loner.ID, asg.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{Score: 0, Message: quiz.MsgSubmitted}, res)
		assert.Empty(t, f.mailSvc.Sent())
	})
}

func TestService_SubmitPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(f.progRepo, quiz.Options{})

	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, f.asgRepo, "Oceans", 5, "C")

	pending, ok := f.progRepo.(interface {
		CreatePending(ctx context.Context, userID, assignmentID int) (progress.Progress, error)
	})
	require.True(t, ok)
	p, err := pending.CreatePending(ctx, jane.ID, asg.ID)
	require.NoError(t, err)

	submitted, err := svc.HasSubmitted(ctx, jane.ID, asg.ID)
	require.NoError(t, err)
	assert.False(t, submitted)

	res, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "C", "C", "C", "C", "C"))
	require.NoError(t, err)
	assert.Equal(t, quiz.Result{Score: 100, Message: quiz.MsgSubmitted}, res)

	stored, err := f.progRepo.GetProgress(ctx, jane.ID, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
	assert.Equal(t, 100, stored.Score)

	submitted, err = svc.HasSubmitted(ctx, jane.ID, asg.ID)
	require.NoError(t, err)
	assert.True(t, submitted)
}

func TestService_SubmitLostRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(lostRaceRepo{f.progRepo}, quiz.Options{NotifyOnSubmission: true})

	mgr := testutil.CreateUser(t, f.usrRepo, "boss", "boss@example.com", "", user.RoleManager, nil)
	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, &mgr.ID)
	asg := testutil.CreateAssignment(t, f.asgRepo, "Deserts", 5, "A")

	_, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "A", "A", "A", "A", "A"))
	assert.Equal(t, progress.ErrAlreadySubmitted, err)

	p, err := f.progRepo.GetProgress(ctx, jane.ID, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Score)
	assert.Empty(t, f.mailSvc.Sent())
}

func TestService_SubmitConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(f.progRepo, quiz.Options{})

	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, f.asgRepo, "Mountains", 5, "A")

	const n = 20
	type outcome struct {
		res quiz.Result
		err error
	}
	outcomes := make(chan outcome, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		// each submitter gets a different number of right answers
		right := make([]string, i%6)
		for j := range right {
			right[j] = "A"
		}
		answers := testutil.Answers(asg, right...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := svc.Submit(ctx, jane.ID, asg.ID, answers)
			outcomes <- outcome{res, err}
		}()
	}
	close(start)
	wg.Wait()
	close(outcomes)

	var winners []quiz.Result
	var already []quiz.Result
	for o := range outcomes {
		switch {
		case o.err != nil:
			assert.Equal(t, progress.ErrAlreadySubmitted, o.err)
		case o.res.Message == quiz.MsgSubmitted:
			winners = append(winners, o.res)
		default:
			assert.Equal(t, quiz.MsgAlreadySubmitted, o.res.Message)
			already = append(already, o.res)
		}
	}
	require.Len(t, winners, 1)

	progresses, err := f.progRepo.QueryUserProgress(ctx, jane.ID)
	require.NoError(t, err)
	require.Len(t, progresses, 1)
	assert.Equal(t, winners[0].Score, progresses[0].Score)
	assert.True(t, progresses[0].IsCompleted())
	for _, res := range already {
		assert.Equal(t, winners[0].Score, res.Score)
	}
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}
func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

// flakyUsers fails every lookup except those of the ids in ok.
type flakyUsers struct {
	ok map[int]user.User
}

func (u flakyUsers) GetByID(_ context.Context, id int) (user.User, error) {
	if usr, found := u.ok[id]; found {
		return usr, nil
	}
	return user.User{}, errors.New("connection reset by peer")
}

func TestService_SubmitNotifyFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mgr := testutil.CreateUser(t, f.usrRepo, "boss", "boss@example.com", "", user.RoleManager, nil)
	jane := testutil.CreateUser(t, f.usrRepo, "jane", "jane@example.com", "", user.RoleLearner, &mgr.ID)

	tests := []struct {
		name        string
		users       flakyUsers
		wantWarning string
	}{
		{"learner lookup fails", flakyUsers{}, "quiz: finding learner"},
		{"manager lookup fails", flakyUsers{ok: map[int]user.User{jane.ID: jane}}, "quiz: finding manager"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.mailSvc.Reset()
			asg := testutil.CreateAssignment(t, f.asgRepo, tt.name, 5, "A")
			logger := new(recordingLogger)
			svc := quiz.NewService(f.progRepo, assignment.NewService(f.asgRepo), tt.users, f.mailSvc, logger, quiz.Options{NotifyOnSubmission: true})

			res, err := svc.Submit(ctx, jane.ID, asg.ID, testutil.Answers(asg, "A"))
			require.NoError(t, err)
			assert.Equal(t, quiz.Result{Score: 20, Message: quiz.MsgSubmitted}, res)
			assert.Empty(t, f.mailSvc.Sent())
			require.Len(t, logger.warnings, 1)
			assert.Contains(t, logger.warnings[0], tt.wantWarning)
		})
	}
}
