package repository

import (
	"context"
	"errors"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/util"

	"gorm.io/gorm"
)

// TestRepository 试卷、题目和换算表，对评分核心只读
type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) FindByID(ctx context.Context, id string) (*model.Test, error) {
	var test model.Test
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&test).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestRepository) ListQuestions(ctx context.Context, testID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("position ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// ListThresholds returns the table sorted by min_score descending.
func (r *TestRepository) ListThresholds(ctx context.Context, testID string) ([]model.BandThreshold, error) {
	var rows []model.BandThreshold
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("min_score DESC").
		Find(&rows).Error
	return rows, err
}

// Create stores a test with its questions. Reading and listening tests that
// arrive without a table get the standard 40-item table.
func (r *TestRepository) Create(ctx context.Context, test *model.Test, questions []model.Question, thresholds []model.BandThreshold) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(test).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].TestID = test.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		if len(thresholds) == 0 {
			for _, row := range model.DefaultBandTable(test.Type) {
				thresholds = append(thresholds, model.BandThreshold{MinScore: row.MinScore, Band: row.Band})
			}
		}
		for i := range thresholds {
			thresholds[i].TestID = test.ID
		}
		if len(thresholds) > 0 {
			if err := tx.Create(&thresholds).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
