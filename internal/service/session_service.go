package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/repository"
	"ielts_exam_backend/internal/scoring"
	"ielts_exam_backend/internal/util"
	"ielts_exam_backend/pkg/locker"
	"ielts_exam_backend/pkg/logger"
	"ielts_exam_backend/pkg/monitoring"
	"ielts_exam_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SessionService 管理一次考试尝试的状态：NOT_STARTED -> IN_PROGRESS -> COMPLETED。
// 完成是终态，已完成的 key 不允许再次开始或提交。
type SessionService struct {
	SessionRepo       *repository.SessionRepository
	TestRepo          *repository.TestRepository
	Results           *ResultService
	Locker            locker.Locker
	Clock             Clock
	NewID             IDGenerator
	DefaultTotalItems int
}

func NewSessionService(
	sessions *repository.SessionRepository,
	tests *repository.TestRepository,
	results *ResultService,
	lk locker.Locker,
	clock Clock,
	newID IDGenerator,
	defaultTotalItems int,
) *SessionService {
	if defaultTotalItems <= 0 {
		defaultTotalItems = scoring.DefaultTotalItems
	}
	return &SessionService{
		SessionRepo:       sessions,
		TestRepo:          tests,
		Results:           results,
		Locker:            lk,
		Clock:             clock,
		NewID:             newID,
		DefaultTotalItems: defaultTotalItems,
	}
}

// StartInput identifies the attempt. AssignmentID is optional and only read
// when the session is created.
type StartInput struct {
	Key          model.SessionKey
	AssignmentID string
}

type CompleteInput struct {
	Key          model.SessionKey
	AssignmentID string
	Answers      json.RawMessage
}

// CompleteOutcome carries the completed session. Warning is set when the
// submission was stored but the Result could not be refreshed.
type CompleteOutcome struct {
	Session    *model.TestSession `json:"session"`
	Correct    int                `json:"correctCount"`
	Total      int                `json:"totalPoints"`
	Unscorable []string           `json:"-"`
	Warning    string             `json:"warning,omitempty"`
}

// GradeInput is either the four assessment criteria or, for writing only, a
// Task 1 / Task 2 band pair. Criteria take precedence when both are sent.
type GradeInput struct {
	Criteria []float64 `json:"criteria,omitempty"`
	Task1    *float64  `json:"task1,omitempty"`
	Task2    *float64  `json:"task2,omitempty"`
}

type GradeOutcome struct {
	Session *model.TestSession `json:"session"`
	Warning string             `json:"warning,omitempty"`
}

type SessionView struct {
	State   model.SessionState `json:"state"`
	Session *model.TestSession `json:"session,omitempty"`
}

// validateKey checks the key and that the test exists with the claimed type.
func (s *SessionService) validateKey(ctx context.Context, key model.SessionKey) (*model.Test, error) {
	if key.StudentID == "" {
		return nil, util.ErrPermissionDenied
	}
	if key.TestID == "" {
		return nil, util.ErrTestNotFound
	}
	if !key.TestType.Valid() {
		return nil, util.ErrInvalidTestType
	}
	test, err := s.TestRepo.FindByID(ctx, key.TestID)
	if err != nil {
		return nil, err
	}
	if test.Type != key.TestType {
		return nil, util.ErrInvalidTestType
	}
	return test, nil
}

func (s *SessionService) newSession(key model.SessionKey, assignmentID string) *model.TestSession {
	now := s.Clock.Now()
	sess := &model.TestSession{
		ID:             s.NewID(),
		StudentID:      key.StudentID,
		TestID:         key.TestID,
		TestType:       key.TestType,
		ItemWiseTestID: key.ItemWiseTestID,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if assignmentID != "" {
		sess.AssignmentID = &assignmentID
	}
	return sess
}

func (s *SessionService) rejectRetake(key model.SessionKey) error {
	monitoring.RetakeRejections.WithLabelValues(string(key.TestType)).Inc()
	logger.Log.Info("拒绝重考", zap.String("key", key.String()))
	return util.ErrRetakeNotAllowed
}

// Start returns the in-progress session for key, creating it on first call.
// Repeated starts return the same row unchanged.
func (s *SessionService) Start(ctx context.Context, in StartInput) (*model.TestSession, error) {
	if _, err := s.validateKey(ctx, in.Key); err != nil {
		return nil, err
	}

	stored, created, err := s.SessionRepo.CreateIfAbsent(ctx, s.newSession(in.Key, in.AssignmentID))
	if err != nil {
		return nil, err
	}
	if stored.IsCompleted {
		return nil, s.rejectRetake(in.Key)
	}
	if created {
		monitoring.SessionTransitions.WithLabelValues(string(in.Key.TestType), string(model.InProgress)).Inc()
		logger.Log.Info("Session started", zap.String("key", in.Key.String()), zap.String("sessionId", stored.ID))
	}
	return stored, nil
}

// SaveProgress overwrites the answers of an in-progress session.
func (s *SessionService) SaveProgress(ctx context.Context, key model.SessionKey, answers json.RawMessage) (*model.TestSession, error) {
	if _, err := scoring.DecodeAnswers(answers); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidAnswers, err)
	}

	sess, err := s.SessionRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, util.ErrSessionCompleted
	}

	now := s.Clock.Now()
	if err := s.SessionRepo.SaveAnswers(ctx, sess.ID, datatypes.JSON(answers), now); err != nil {
		return nil, err
	}
	sess.Answers = datatypes.JSON(answers)
	sess.UpdatedAt = now
	logger.Log.Debug("Session progress saved", zap.String("sessionId", sess.ID))
	return sess, nil
}

// Complete scores the final answers and closes the session, creating it first
// when the client submitted without starting. Completions for one key are
// serialized: the first one to take the lock completes the session and every
// later submit for that key, concurrent or not, fails with
// ErrRetakeNotAllowed.
func (s *SessionService) Complete(ctx context.Context, in CompleteInput) (out *CompleteOutcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Complete",
		attribute.String("session.key", in.Key.String()))
	defer func() { tracing.End(span, err) }()

	answers, err := scoring.DecodeAnswers(in.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidAnswers, err)
	}
	test, err := s.validateKey(ctx, in.Key)
	if err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, "session:"+in.Key.String())
	if err != nil {
		if errors.Is(err, locker.ErrTimeout) {
			return nil, util.ErrLockTimeout
		}
		return nil, err
	}
	defer release()

	sess, created, err := s.SessionRepo.CreateIfAbsent(ctx, s.newSession(in.Key, in.AssignmentID))
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, s.rejectRetake(in.Key)
	}
	if created {
		logger.Log.Info("提交时自动创建 session", zap.String("key", in.Key.String()), zap.String("sessionId", sess.ID))
	}

	out = &CompleteOutcome{Session: sess}
	if test.Type.AutoScored() {
		if err := s.score(ctx, test, sess, answers, out); err != nil {
			return nil, err
		}
	}

	raw := in.Answers
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	now := s.Clock.Now()
	sess.Answers = datatypes.JSON(raw)
	sess.CompletedAt = &now
	sess.UpdatedAt = now

	if err := s.SessionRepo.MarkCompleted(ctx, sess); err != nil {
		if errors.Is(err, util.ErrSessionCompleted) {
			return nil, s.rejectRetake(in.Key)
		}
		return nil, err
	}

	monitoring.SessionTransitions.WithLabelValues(string(sess.TestType), string(model.Completed)).Inc()
	if sess.Band != nil {
		monitoring.ModuleBands.WithLabelValues(string(sess.TestType)).Observe(*sess.Band)
	}
	logger.Log.Info("Session completed",
		zap.String("sessionId", sess.ID),
		zap.String("testType", string(sess.TestType)),
		zap.Int("correct", out.Correct),
		zap.Int("total", out.Total))

	out.Warning = s.Results.TryMaterialize(ctx, model.RefForSession(sess))
	return out, nil
}

// score fills score and band for listening and reading. Tests with a stored
// table are looked up on the 40-item scale; tests without one use the
// percentage staircase.
func (s *SessionService) score(ctx context.Context, test *model.Test, sess *model.TestSession, answers map[string]scoring.Answer, out *CompleteOutcome) error {
	rows, err := s.TestRepo.ListQuestions(ctx, test.ID)
	if err != nil {
		return err
	}
	questions := make([]scoring.Question, 0, len(rows))
	for _, q := range rows {
		questions = append(questions, q.ToScoring())
	}

	ms := scoring.ScoreModule(questions, answers)
	if len(ms.Unscorable) > 0 {
		monitoring.UnscorableQuestions.Add(float64(len(ms.Unscorable)))
		logger.Log.Warn("题目缺少正确答案，按0分计",
			zap.String("testId", test.ID),
			zap.Strings("questionIds", ms.Unscorable))
	}

	thresholds, err := s.TestRepo.ListThresholds(ctx, test.ID)
	if err != nil {
		return err
	}

	var score, band float64
	table, tableErr := scoring.NewThresholdTable(model.ThresholdRows(thresholds))
	switch {
	case len(thresholds) > 0 && tableErr == nil:
		items := test.TotalItems
		if items <= 0 {
			items = s.DefaultTotalItems
		}
		scaled := ms.Scaled(items)
		score = float64(scaled)
		band = table.Lookup(scaled)
	default:
		if tableErr != nil {
			logger.Log.Error("换算表不单调，改用百分比换算", zap.String("testId", test.ID), zap.Error(tableErr))
		}
		score = ms.RawScore
		band = scoring.PercentageBand(ms.Fraction() * 100)
	}

	sess.Score = &score
	sess.Band = &band
	sess.CorrectCount = ms.CorrectCount
	sess.EarnedPoints = ms.RawScore
	sess.TotalPoints = ms.TotalQuestions

	out.Correct = ms.CorrectCount
	out.Total = ms.TotalQuestions
	out.Unscorable = ms.Unscorable
	return nil
}

// Grade sets the band of a completed writing or speaking session from the
// instructor's criteria. Regrading overwrites the previous band.
func (s *SessionService) Grade(ctx context.Context, sessionID, graderID string, in GradeInput) (out *GradeOutcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Grade", attribute.String("session.id", sessionID))
	defer func() { tracing.End(span, err) }()

	sess, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TestType.AutoScored() {
		return nil, util.ErrNotGradable
	}
	if !sess.IsCompleted {
		return nil, util.ErrSessionNotCompleted
	}

	var band float64
	switch {
	case len(in.Criteria) > 0:
		band, err = scoring.CriteriaBand(in.Criteria)
	case sess.TestType != model.Writing:
		// Task 1 / Task 2 只存在于写作
		err = errors.New("task bands apply to writing only")
	default:
		band, err = scoring.TaskWeightedBand(in.Task1, in.Task2)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidCriteria, err)
	}

	criteria, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if err := s.SessionRepo.SetGrade(ctx, sess.ID, band, datatypes.JSON(criteria), graderID, now); err != nil {
		return nil, err
	}

	sess.Band = &band
	sess.Criteria = datatypes.JSON(criteria)
	sess.GradedBy = &graderID
	sess.GradedAt = &now
	sess.UpdatedAt = now

	monitoring.ModuleBands.WithLabelValues(string(sess.TestType)).Observe(band)
	logger.Log.Info("Session graded",
		zap.String("sessionId", sess.ID),
		zap.String("grader", graderID),
		zap.Float64("band", band))

	return &GradeOutcome{
		Session: sess,
		Warning: s.Results.TryMaterialize(ctx, model.RefForSession(sess)),
	}, nil
}

// Get reports the state for key; a missing session is NOT_STARTED.
func (s *SessionService) Get(ctx context.Context, key model.SessionKey) (*SessionView, error) {
	sess, err := s.SessionRepo.FindByKey(ctx, key)
	if errors.Is(err, util.ErrSessionNotFound) {
		return &SessionView{State: model.NotStarted}, nil
	}
	if err != nil {
		return nil, err
	}
	return &SessionView{State: sess.State(), Session: sess}, nil
}

// Reset deletes a session so the student may take the test again, then
// refreshes the Result it fed.
func (s *SessionService) Reset(ctx context.Context, sessionID string) (warning string, err error) {
	sess, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	release, err := s.Locker.Acquire(ctx, "session:"+sess.Key().String())
	if err != nil {
		if errors.Is(err, locker.ErrTimeout) {
			return "", util.ErrLockTimeout
		}
		return "", err
	}
	defer release()

	if err := s.SessionRepo.Delete(ctx, sess.ID); err != nil {
		return "", err
	}
	logger.Log.Info("管理员重置 session", zap.String("sessionId", sess.ID), zap.String("key", sess.Key().String()))
	return s.Results.TryMaterialize(ctx, model.RefForSession(sess)), nil
}
