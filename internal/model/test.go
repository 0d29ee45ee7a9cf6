package model

import (
	"ielts_exam_backend/internal/scoring"

	"gorm.io/datatypes"
)

type TestType string

const (
	Listening TestType = "LISTENING"
	Reading   TestType = "READING"
	Writing   TestType = "WRITING"
	Speaking  TestType = "SPEAKING"
)

func (t TestType) Valid() bool {
	switch t {
	case Listening, Reading, Writing, Speaking:
		return true
	}
	return false
}

// AutoScored 听力和阅读在提交时自动评分，写作和口语需要教师评分
func (t TestType) AutoScored() bool {
	return t == Listening || t == Reading
}

// swagger:model Test
type Test struct {
	UUIDBase
	Title       string   `gorm:"size:255;not null" json:"title"`
	Type        TestType `gorm:"size:20;not null;index" json:"type"`
	TotalItems  int      `gorm:"default:40" json:"totalItems"` // band table scale
	IsPublished bool     `gorm:"default:false" json:"isPublished"`
}

func (Test) TableName() string {
	return "tests"
}

// swagger:model Question
type Question struct {
	UUIDBase
	TestID        string         `gorm:"index;type:varchar(36)" json:"testId"`
	QuestionType  string         `gorm:"size:50;not null" json:"questionType"`
	Content       string         `gorm:"type:text" json:"content"`
	Points        int            `gorm:"default:1" json:"points"`
	CorrectAnswer datatypes.JSON `json:"correctAnswer"`
	Position      int            `gorm:"default:0" json:"position"`
}

func (Question) TableName() string {
	return "questions"
}

// ToScoring decodes the stored correct answer into its typed form. A missing
// or undecodable answer yields a question the scorer treats as unscorable.
func (q Question) ToScoring() scoring.Question {
	sq := scoring.Question{
		ID:     q.ID,
		Type:   scoring.QuestionType(q.QuestionType),
		Points: q.Points,
	}
	if correct, err := scoring.DecodeAnswer(q.CorrectAnswer); err == nil {
		sq.Correct = correct
	}
	return sq
}

// swagger:model BandThreshold
type BandThreshold struct {
	BaseModel
	TestID   string  `gorm:"index;type:varchar(36)" json:"testId"`
	MinScore int     `json:"minScore"`
	Band     float64 `json:"band"`
}

func (BandThreshold) TableName() string {
	return "band_thresholds"
}

func ThresholdRows(rows []BandThreshold) []scoring.Threshold {
	out := make([]scoring.Threshold, 0, len(rows))
	for _, r := range rows {
		out = append(out, scoring.Threshold{MinScore: r.MinScore, Band: r.Band})
	}
	return out
}

// DefaultBandTable 返回新建听力/阅读试卷时使用的标准40题换算表
func DefaultBandTable(t TestType) []scoring.Threshold {
	switch t {
	case Reading:
		return []scoring.Threshold{
			{MinScore: 39, Band: 9.0}, {MinScore: 37, Band: 8.5}, {MinScore: 35, Band: 8.0},
			{MinScore: 33, Band: 7.5}, {MinScore: 30, Band: 7.0}, {MinScore: 27, Band: 6.5},
			{MinScore: 23, Band: 6.0}, {MinScore: 19, Band: 5.5}, {MinScore: 15, Band: 5.0},
			{MinScore: 13, Band: 4.5}, {MinScore: 10, Band: 4.0}, {MinScore: 8, Band: 3.5},
			{MinScore: 6, Band: 3.0}, {MinScore: 4, Band: 2.5}, {MinScore: 0, Band: 0.0},
		}
	case Listening:
		return []scoring.Threshold{
			{MinScore: 39, Band: 9.0}, {MinScore: 37, Band: 8.5}, {MinScore: 35, Band: 8.0},
			{MinScore: 32, Band: 7.5}, {MinScore: 30, Band: 7.0}, {MinScore: 26, Band: 6.5},
			{MinScore: 23, Band: 6.0}, {MinScore: 18, Band: 5.5}, {MinScore: 16, Band: 5.0},
			{MinScore: 13, Band: 4.5}, {MinScore: 10, Band: 4.0}, {MinScore: 8, Band: 3.5},
			{MinScore: 6, Band: 3.0}, {MinScore: 4, Band: 2.5}, {MinScore: 0, Band: 0.0},
		}
	}
	return nil
}
