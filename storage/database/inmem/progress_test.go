package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
	inmemdb "github.com/arnalearn/arna/storage/database/inmem"
	testutil "github.com/arnalearn/arna/tests"
)

func TestProgressRepository_SaveCompleted(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	asgRepo := inmemdb.NewAssignmentRepository(db)
	repo := inmemdb.NewProgressRepository(db)

	jane := testutil.CreateUser(t, usrRepo, "jane", "jane@example.com", "", user.RoleLearner, nil)
	asg := testutil.CreateAssignment(t, asgRepo, "Lakes", 5, "A")
	other := testutil.CreateAssignment(t, asgRepo, "Islands", 5, "A")

	submittedAt := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	completed := func(assignmentID, score int) progress.Progress {
		at := submittedAt
		return progress.Progress{
			UserID:       jane.ID,
			AssignmentID: assignmentID,
			Score:        score,
			Status:       progress.StatusCompleted,
			SubmittedAt:  &at,
			Answers:      map[int]string{asg.Questions[0].ID: "A"},
		}
	}

	t.Run("unknown references", func(t *testing.T) {
		p := completed(asg.ID, 20)
		p.UserID = 9999
		_, err := repo.SaveCompleted(ctx, p)
		assert.Error(t, err)

		_, err = repo.SaveCompleted(ctx, completed(9999, 20))
		assert.Error(t, err)
	})

	first, err := repo.SaveCompleted(ctx, completed(asg.ID, 80))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	t.Run("completed pair is rejected", func(t *testing.T) {
		_, err := repo.SaveCompleted(ctx, completed(asg.ID, 100))
		assert.Equal(t, progress.ErrAlreadySubmitted, err)

		stored, err := repo.GetProgress(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.ID)
		assert.Equal(t, 80, stored.Score)
		require.NotNil(t, stored.Assignment)
		assert.Equal(t, "Lakes", stored.Assignment.Title)
	})

	t.Run("pending pair is overwritten", func(t *testing.T) {
		pending, err := repo.CreatePending(ctx, jane.ID, other.ID)
		require.NoError(t, err)
		assert.False(t, pending.IsCompleted())

		saved, err := repo.SaveCompleted(ctx, completed(other.ID, 40))
		require.NoError(t, err)
		assert.Equal(t, pending.ID, saved.ID)

		progresses, err := repo.QueryUserProgress(ctx, jane.ID)
		require.NoError(t, err)
		assert.Len(t, progresses, 2)
	})

	t.Run("stored answers are copies", func(t *testing.T) {
		stored, err := repo.GetProgress(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		stored.Answers[asg.Questions[0].ID] = "B"

		again, err := repo.GetProgress(ctx, jane.ID, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, "A", again.Answers[asg.Questions[0].ID])
	})
}
