package repository

import (
	"context"
	"errors"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) FindByRef(ctx context.Context, ref model.ResultRef) (*model.Result, error) {
	var res model.Result
	err := r.DB.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", ref.Type, ref.ID).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Upsert 按 (ref_type, ref_id) 插入或覆盖分数字段，返回库中的最终行
func (r *ResultRepository) Upsert(ctx context.Context, res *model.Result) (*model.Result, error) {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ref_type"}, {Name: "ref_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"student_id",
				"listening_band",
				"reading_band",
				"writing_band",
				"speaking_band",
				"overall_band",
				"graded_modules",
				"generated_at",
				"updated_at",
			}),
		}).
		Create(res).Error
	if err != nil {
		return nil, err
	}
	return r.FindByRef(ctx, res.Ref())
}

func (r *ResultRepository) Delete(ctx context.Context, ref model.ResultRef) error {
	return r.DB.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", ref.Type, ref.ID).
		Delete(&model.Result{}).Error
}
