package model

import (
	"testing"
	"time"

	"ielts_exam_backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSessionState(t *testing.T) {
	var missing *TestSession
	assert.Equal(t, NotStarted, missing.State())
	assert.False(t, missing.Graded())

	s := &TestSession{ID: "s-1", TestType: Writing}
	assert.Equal(t, InProgress, s.State())

	now := time.Now()
	s.IsCompleted, s.CompletedAt = true, &now
	assert.Equal(t, Completed, s.State())
	assert.False(t, s.Graded(), "writing waits for a band")

	band := 6.0
	s.Band = &band
	assert.True(t, s.Graded())
}

func TestRefForSession(t *testing.T) {
	s := &TestSession{ID: "s-1"}
	assert.Equal(t, ResultRef{Type: RefSession, ID: "s-1"}, RefForSession(s))

	empty := ""
	s.AssignmentID = &empty
	assert.Equal(t, ResultRef{Type: RefSession, ID: "s-1"}, RefForSession(s))

	as := "as-9"
	s.AssignmentID = &as
	ref := RefForSession(s)
	assert.Equal(t, ResultRef{Type: RefAssignment, ID: "as-9"}, ref)
	assert.Equal(t, "assignment:as-9", ref.String())
	assert.False(t, RefType("course").Valid())
}

func TestSessionKeyString(t *testing.T) {
	k := SessionKey{StudentID: "stu", TestID: "t", TestType: Reading}
	assert.Equal(t, "stu:t:READING", k.String())
	k.ItemWiseTestID = "iw"
	assert.Equal(t, "stu:t:READING:iw", k.String())
}

func TestQuestionToScoring(t *testing.T) {
	q := Question{QuestionType: "MATCHING", Points: 2, CorrectAnswer: datatypes.JSON(`{"1":"A","2":"C"}`)}
	q.ID = "q-1"
	sq := q.ToScoring()
	assert.Equal(t, scoring.Matching, sq.Type)
	assert.Equal(t, 2, sq.Points)
	require.NotNil(t, sq.Correct)

	broken := Question{QuestionType: "FILL_IN_BLANK", CorrectAnswer: datatypes.JSON(`{not json`)}
	assert.Nil(t, broken.ToScoring().Correct)

	missing := Question{QuestionType: "FILL_IN_BLANK"}
	assert.Nil(t, missing.ToScoring().Correct)
}

func TestDefaultBandTables(t *testing.T) {
	for _, typ := range []TestType{Listening, Reading} {
		rows := DefaultBandTable(typ)
		require.Len(t, rows, 15, typ)
		_, err := scoring.NewThresholdTable(rows)
		assert.NoError(t, err, typ)
	}
	assert.Nil(t, DefaultBandTable(Writing))
	assert.Nil(t, DefaultBandTable(Speaking))
}

func TestTestType(t *testing.T) {
	assert.True(t, Listening.AutoScored())
	assert.False(t, Speaking.AutoScored())
	assert.False(t, TestType("listening").Valid())
}
