package repository

import (
	"context"
	"errors"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/util"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sessionKeyColumns = []clause.Column{
	{Name: "student_id"},
	{Name: "test_id"},
	{Name: "test_type"},
	{Name: "item_wise_test_id"},
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) FindByKey(ctx context.Context, key model.SessionKey) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND test_id = ? AND test_type = ? AND item_wise_test_id = ?",
			key.StudentID, key.TestID, key.TestType, key.ItemWiseTestID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateIfAbsent inserts s unless a row with the same key exists. The unique
// index makes this a single atomic statement; the stored row is returned
// either way, created reports whether it is the one just inserted.
func (r *SessionRepository) CreateIfAbsent(ctx context.Context, s *model.TestSession) (stored *model.TestSession, created bool, err error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: sessionKeyColumns, DoNothing: true}).
		Create(s)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return s, true, nil
	}
	stored, err = r.FindByKey(ctx, s.Key())
	return stored, false, err
}

// stateAfterMiss tells a conditional update that matched nothing apart from a
// missing row.
func (r *SessionRepository) stateAfterMiss(ctx context.Context, id string) error {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.IsCompleted {
		return util.ErrSessionCompleted
	}
	// MySQL 对值未变化的 UPDATE 返回 0 行
	return nil
}

// SaveAnswers overwrites answers of an in-progress session. Score and band
// are left alone.
func (r *SessionRepository) SaveAnswers(ctx context.Context, id string, answers datatypes.JSON, now time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"answers":    answers,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.stateAfterMiss(ctx, id)
	}
	return nil
}

// MarkCompleted writes the final answers and score and flips is_completed.
// Only one caller can win the transition; the rest get ErrSessionCompleted.
func (r *SessionRepository) MarkCompleted(ctx context.Context, s *model.TestSession) error {
	res := r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND is_completed = ?", s.ID, false).
		Updates(map[string]interface{}{
			"answers":       s.Answers,
			"score":         s.Score,
			"correct_count": s.CorrectCount,
			"earned_points": s.EarnedPoints,
			"total_points":  s.TotalPoints,
			"band":          s.Band,
			"is_completed":  true,
			"completed_at":  s.CompletedAt,
			"updated_at":    s.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.stateAfterMiss(ctx, s.ID); err != nil {
			return err
		}
	}
	s.IsCompleted = true
	return nil
}

// SetGrade stores an instructor band on a completed session.
func (r *SessionRepository) SetGrade(ctx context.Context, id string, band float64, criteria datatypes.JSON, gradedBy string, gradedAt time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND is_completed = ?", id, true).
		Updates(map[string]interface{}{
			"band":       band,
			"criteria":   criteria,
			"graded_by":  gradedBy,
			"graded_at":  gradedAt,
			"updated_at": gradedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.IsCompleted {
			return util.ErrSessionNotCompleted
		}
	}
	return nil
}

// ListForRef 读取组成某个结果的全部 session
func (r *SessionRepository) ListForRef(ctx context.Context, ref model.ResultRef) ([]model.TestSession, error) {
	var sessions []model.TestSession
	q := r.DB.WithContext(ctx)
	switch ref.Type {
	case model.RefAssignment:
		q = q.Where("assignment_id = ?", ref.ID)
	case model.RefSession:
		q = q.Where("id = ?", ref.ID)
	default:
		return nil, util.ErrInvalidResultRef
	}
	err := q.Order("completed_at ASC").Find(&sessions).Error
	return sessions, err
}

// CompletedRefs lists every ref that has at least one completed session.
func (r *SessionRepository) CompletedRefs(ctx context.Context) ([]model.ResultRef, error) {
	var assignments []string
	err := r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("is_completed = ? AND assignment_id IS NOT NULL AND assignment_id <> ''", true).
		Distinct().
		Pluck("assignment_id", &assignments).Error
	if err != nil {
		return nil, err
	}

	var sessions []string
	err = r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("is_completed = ? AND (assignment_id IS NULL OR assignment_id = '')", true).
		Pluck("id", &sessions).Error
	if err != nil {
		return nil, err
	}

	refs := make([]model.ResultRef, 0, len(assignments)+len(sessions))
	for _, id := range assignments {
		refs = append(refs, model.ResultRef{Type: model.RefAssignment, ID: id})
	}
	for _, id := range sessions {
		refs = append(refs, model.ResultRef{Type: model.RefSession, ID: id})
	}
	return refs, nil
}

// Delete 管理员重置，唯一的物理删除路径
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.TestSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}
