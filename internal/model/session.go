package model

import (
	"time"

	"gorm.io/datatypes"
)

type SessionState string

const (
	NotStarted SessionState = "NOT_STARTED"
	InProgress SessionState = "IN_PROGRESS"
	Completed  SessionState = "COMPLETED"
)

// SessionKey identifies one attempt. ItemWiseTestID is empty outside item-wise
// collections so the unique index never sees NULLs.
type SessionKey struct {
	StudentID      string   `json:"studentId"`
	TestID         string   `json:"testId"`
	TestType       TestType `json:"testType"`
	ItemWiseTestID string   `json:"itemWiseTestId,omitempty"`
}

func (k SessionKey) String() string {
	s := k.StudentID + ":" + k.TestID + ":" + string(k.TestType)
	if k.ItemWiseTestID != "" {
		s += ":" + k.ItemWiseTestID
	}
	return s
}

// swagger:model TestSession
type TestSession struct {
	ID             string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID      string   `gorm:"size:64;not null;uniqueIndex:idx_session_key,priority:1" json:"studentId"`
	TestID         string   `gorm:"size:36;not null;uniqueIndex:idx_session_key,priority:2" json:"testId"`
	TestType       TestType `gorm:"size:20;not null;uniqueIndex:idx_session_key,priority:3" json:"testType"`
	ItemWiseTestID string   `gorm:"size:64;not null;default:'';uniqueIndex:idx_session_key,priority:4" json:"itemWiseTestId,omitempty"`
	AssignmentID   *string  `gorm:"size:64;index" json:"assignmentId,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	IsCompleted bool       `gorm:"not null;default:false;index" json:"isCompleted"`

	Answers datatypes.JSON `json:"answers,omitempty"`

	// Score 听力/阅读为换算到40分制的原始分，百分比换算时为得分点数
	Score        *float64 `json:"score,omitempty"`
	CorrectCount int      `gorm:"default:0" json:"correctCount"`
	EarnedPoints float64  `gorm:"default:0" json:"earnedPoints"`
	TotalPoints  int      `gorm:"default:0" json:"totalPoints"`
	Band         *float64 `json:"band,omitempty"`

	// 写作/口语人工评分
	Criteria datatypes.JSON `json:"criteria,omitempty"`
	GradedBy *string        `gorm:"size:64" json:"gradedBy,omitempty"`
	GradedAt *time.Time     `json:"gradedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

func (s *TestSession) Key() SessionKey {
	return SessionKey{
		StudentID:      s.StudentID,
		TestID:         s.TestID,
		TestType:       s.TestType,
		ItemWiseTestID: s.ItemWiseTestID,
	}
}

func (s *TestSession) State() SessionState {
	switch {
	case s == nil:
		return NotStarted
	case s.IsCompleted:
		return Completed
	default:
		return InProgress
	}
}

// Graded 听力/阅读完成即有分数；写作/口语需要教师给出 band 后才算已评分
func (s *TestSession) Graded() bool {
	return s != nil && s.IsCompleted && s.Band != nil
}
