package repository

import (
	"context"
	"testing"
	"time"

	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/testutil"
	"ielts_exam_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newSession(id string, key model.SessionKey) *model.TestSession {
	return &model.TestSession{
		ID:             id,
		StudentID:      key.StudentID,
		TestID:         key.TestID,
		TestType:       key.TestType,
		ItemWiseTestID: key.ItemWiseTestID,
		StartedAt:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTestRepository_CreateSeedsDefaultTable(t *testing.T) {
	ctx := context.Background()
	repo := NewTestRepository(testutil.NewDB(t))

	test := &model.Test{Title: "Academic Reading 1", Type: model.Reading, TotalItems: 40}
	questions := []model.Question{
		{QuestionType: "FILL_IN_BLANK", Points: 1, CorrectAnswer: datatypes.JSON(`"delta"`), Position: 2},
		{QuestionType: "MULTIPLE_CHOICE", Points: 1, CorrectAnswer: datatypes.JSON(`"B"`), Position: 1},
	}
	require.NoError(t, repo.Create(ctx, test, questions, nil))
	require.NotEmpty(t, test.ID)

	got, err := repo.FindByID(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Reading, got.Type)

	qs, err := repo.ListQuestions(ctx, test.ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "MULTIPLE_CHOICE", qs[0].QuestionType)

	rows, err := repo.ListThresholds(ctx, test.ID)
	require.NoError(t, err)
	require.Len(t, rows, 15)
	assert.Equal(t, 39, rows[0].MinScore)
	assert.Equal(t, 0, rows[len(rows)-1].MinScore)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}

func TestSessionRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	key := model.SessionKey{StudentID: "stu-1", TestID: "t-1", TestType: model.Reading}

	first, created, err := repo.CreateIfAbsent(ctx, newSession("s-1", key))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s-1", first.ID)

	second, created, err := repo.CreateIfAbsent(ctx, newSession("s-2", key))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "s-1", second.ID)

	// item-wise collections are attempted independently
	itemWise := key
	itemWise.ItemWiseTestID = "iw-1"
	third, created, err := repo.CreateIfAbsent(ctx, newSession("s-3", itemWise))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s-3", third.ID)

	var count int64
	repo.DB.Model(&model.TestSession{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSessionRepository_Transitions(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	key := model.SessionKey{StudentID: "stu-1", TestID: "t-1", TestType: model.Listening}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.CreateIfAbsent(ctx, newSession("s-1", key))
	require.NoError(t, err)

	require.NoError(t, repo.SaveAnswers(ctx, "s-1", datatypes.JSON(`{"q1":"a"}`), now))
	assert.ErrorIs(t, repo.SaveAnswers(ctx, "nope", datatypes.JSON(`{}`), now), util.ErrSessionNotFound)

	score, band := 30.0, 7.0
	done := &model.TestSession{
		ID:          "s-1",
		Answers:     datatypes.JSON(`{"q1":"b"}`),
		Score:       &score,
		Band:        &band,
		CompletedAt: &now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.MarkCompleted(ctx, done))
	assert.ErrorIs(t, repo.MarkCompleted(ctx, done), util.ErrSessionCompleted)
	assert.ErrorIs(t, repo.SaveAnswers(ctx, "s-1", datatypes.JSON(`{}`), now), util.ErrSessionCompleted)

	stored, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, 7.0, *stored.Band)
	assert.JSONEq(t, `{"q1":"b"}`, string(stored.Answers))
}

func TestSessionRepository_SetGradeRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	key := model.SessionKey{StudentID: "stu-1", TestID: "t-w", TestType: model.Writing}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.CreateIfAbsent(ctx, newSession("s-w", key))
	require.NoError(t, err)

	err = repo.SetGrade(ctx, "s-w", 6.5, datatypes.JSON(`{}`), "instructor-1", now)
	assert.ErrorIs(t, err, util.ErrSessionNotCompleted)

	require.NoError(t, repo.MarkCompleted(ctx, &model.TestSession{ID: "s-w", CompletedAt: &now, UpdatedAt: now}))
	require.NoError(t, repo.SetGrade(ctx, "s-w", 6.5, datatypes.JSON(`{"task1":6,"task2":7}`), "instructor-1", now))

	stored, err := repo.FindByID(ctx, "s-w")
	require.NoError(t, err)
	require.NotNil(t, stored.Band)
	assert.Equal(t, 6.5, *stored.Band)
	assert.True(t, stored.Graded())
}

func TestSessionRepository_RefsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assignment := "as-1"

	for i, tt := range []model.TestType{model.Listening, model.Reading} {
		s := newSession([]string{"s-l", "s-r"}[i], model.SessionKey{StudentID: "stu-1", TestID: "t-" + string(tt), TestType: tt})
		s.AssignmentID = &assignment
		_, _, err := repo.CreateIfAbsent(ctx, s)
		require.NoError(t, err)
		require.NoError(t, repo.MarkCompleted(ctx, &model.TestSession{ID: s.ID, CompletedAt: &now, UpdatedAt: now}))
	}
	lone := newSession("s-lone", model.SessionKey{StudentID: "stu-2", TestID: "t-x", TestType: model.Reading})
	_, _, err := repo.CreateIfAbsent(ctx, lone)
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(ctx, &model.TestSession{ID: "s-lone", CompletedAt: &now, UpdatedAt: now}))

	refs, err := repo.CompletedRefs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.ResultRef{
		{Type: model.RefAssignment, ID: "as-1"},
		{Type: model.RefSession, ID: "s-lone"},
	}, refs)

	sessions, err := repo.ListForRef(ctx, model.ResultRef{Type: model.RefAssignment, ID: "as-1"})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	_, err = repo.ListForRef(ctx, model.ResultRef{Type: "course", ID: "x"})
	assert.ErrorIs(t, err, util.ErrInvalidResultRef)

	require.NoError(t, repo.Delete(ctx, "s-lone"))
	assert.ErrorIs(t, repo.Delete(ctx, "s-lone"), util.ErrSessionNotFound)
}

func TestResultRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(testutil.NewDB(t))
	ref := model.ResultRef{Type: model.RefAssignment, ID: "as-1"}
	reading := 7.0
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, err := repo.Upsert(ctx, &model.Result{
		ID: "r-1", RefType: ref.Type, RefID: ref.ID, StudentID: "stu-1",
		ReadingBand: &reading, OverallBand: 7.0, GradedModules: 1, GeneratedAt: t1,
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", first.ID)

	writing := 6.0
	second, err := repo.Upsert(ctx, &model.Result{
		ID: "r-2", RefType: ref.Type, RefID: ref.ID, StudentID: "stu-1",
		ReadingBand: &reading, WritingBand: &writing, OverallBand: 6.5, GradedModules: 2, GeneratedAt: t1.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", second.ID, "upsert keeps the original row")
	assert.Equal(t, 6.5, second.OverallBand)
	require.NotNil(t, second.WritingBand)
	assert.Nil(t, second.ListeningBand)

	var count int64
	repo.DB.Model(&model.Result{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, ref))
	_, err = repo.FindByRef(ctx, ref)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}
