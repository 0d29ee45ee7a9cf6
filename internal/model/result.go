package model

import "time"

type RefType string

const (
	RefAssignment RefType = "assignment"
	RefSession    RefType = "session"
)

func (t RefType) Valid() bool {
	return t == RefAssignment || t == RefSession
}

// ResultRef names what a Result aggregates: an assignment, or a single
// session that was taken outside any assignment.
type ResultRef struct {
	Type RefType `json:"refType"`
	ID   string  `json:"refId"`
}

func (r ResultRef) String() string {
	return string(r.Type) + ":" + r.ID
}

// RefForSession 有作业的 session 汇总到作业，否则按 session 自身汇总
func RefForSession(s *TestSession) ResultRef {
	if s.AssignmentID != nil && *s.AssignmentID != "" {
		return ResultRef{Type: RefAssignment, ID: *s.AssignmentID}
	}
	return ResultRef{Type: RefSession, ID: s.ID}
}

// Result caches the bands of one ref. It is always recomputable from the
// sessions it was built from.
// swagger:model Result
type Result struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RefType       RefType   `gorm:"size:20;not null;uniqueIndex:idx_result_ref,priority:1" json:"refType"`
	RefID         string    `gorm:"size:64;not null;uniqueIndex:idx_result_ref,priority:2" json:"refId"`
	StudentID     string    `gorm:"size:64;index" json:"studentId"`
	ListeningBand *float64  `json:"listeningBand"`
	ReadingBand   *float64  `json:"readingBand"`
	WritingBand   *float64  `json:"writingBand"`
	SpeakingBand  *float64  `json:"speakingBand"`
	OverallBand   float64   `json:"overallBand"`
	GradedModules int       `json:"gradedModules"`
	GeneratedAt   time.Time `json:"generatedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Result) TableName() string {
	return "results"
}

func (r *Result) Ref() ResultRef {
	return ResultRef{Type: r.RefType, ID: r.RefID}
}
