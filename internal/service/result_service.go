package service

import (
	"context"
	"errors"
	"fmt"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/repository"
	"ielts_exam_backend/internal/scoring"
	"ielts_exam_backend/internal/util"
	"ielts_exam_backend/pkg/cache"
	"ielts_exam_backend/pkg/locker"
	"ielts_exam_backend/pkg/logger"
	"ielts_exam_backend/pkg/monitoring"
	"ielts_exam_backend/pkg/tracing"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ResultService 汇总各模块 band 生成 Result。Result 只是缓存，随时可由 session 重新计算。
type ResultService struct {
	SessionRepo *repository.SessionRepository
	ResultRepo  *repository.ResultRepository
	Cache       cache.ResultCache // nil 表示不缓存
	Locker      locker.Locker     // 同一 ref 的物化串行执行
	Clock       Clock
	NewID       IDGenerator
	Workers     int

	loads singleflight.Group
}

func NewResultService(sessions *repository.SessionRepository, results *repository.ResultRepository, c cache.ResultCache, lk locker.Locker, clock Clock, newID IDGenerator, workers int) *ResultService {
	if workers <= 0 {
		workers = 1
	}
	if lk == nil {
		lk = locker.NewLocalLocker()
	}
	return &ResultService{
		SessionRepo: sessions,
		ResultRepo:  results,
		Cache:       c,
		Locker:      lk,
		Clock:       clock,
		NewID:       newID,
		Workers:     workers,
	}
}

// latestGraded keeps, per module, the graded session completed last.
func latestGraded(sessions []model.TestSession) map[model.TestType]*model.TestSession {
	out := make(map[model.TestType]*model.TestSession, 4)
	for i := range sessions {
		s := &sessions[i]
		if !s.Graded() {
			continue
		}
		cur, ok := out[s.TestType]
		if !ok || completedAfter(s, cur) {
			out[s.TestType] = s
		}
	}
	return out
}

func completedAfter(a, b *model.TestSession) bool {
	if a.CompletedAt == nil || b.CompletedAt == nil {
		return b.CompletedAt == nil && a.CompletedAt != nil
	}
	return a.CompletedAt.After(*b.CompletedAt)
}

func bandsOf(graded map[model.TestType]*model.TestSession) scoring.ModuleBands {
	var bands scoring.ModuleBands
	for t, s := range graded {
		b := *s.Band
		switch t {
		case model.Listening:
			bands.Listening = &b
		case model.Reading:
			bands.Reading = &b
		case model.Writing:
			bands.Writing = &b
		case model.Speaking:
			bands.Speaking = &b
		}
	}
	return bands
}

// Materialize re-reads every session of ref and upserts its Result. A ref
// with no sessions left has its Result removed and gets ErrResultNotFound.
// Runs for one ref hold the "result:<ref>" lock from the session read to the
// cache write, so the last run to finish has seen every earlier write.
func (s *ResultService) Materialize(ctx context.Context, ref model.ResultRef) (res *model.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "ResultService.Materialize", attribute.String("ref", ref.String()))
	defer func() { tracing.End(span, err) }()

	if !ref.Type.Valid() || ref.ID == "" {
		return nil, util.ErrInvalidResultRef
	}

	release, err := s.Locker.Acquire(ctx, "result:"+ref.String())
	if err != nil {
		if errors.Is(err, locker.ErrTimeout) {
			return nil, util.ErrLockTimeout
		}
		return nil, err
	}
	defer release()

	sessions, err := s.SessionRepo.ListForRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", ref, err)
	}
	if len(sessions) == 0 {
		if err := s.ResultRepo.Delete(ctx, ref); err != nil {
			return nil, err
		}
		s.evict(ctx, ref)
		return nil, util.ErrResultNotFound
	}

	graded := latestGraded(sessions)
	bands := bandsOf(graded)
	now := s.Clock.Now()

	res, err = s.ResultRepo.Upsert(ctx, &model.Result{
		ID:            s.NewID(),
		RefType:       ref.Type,
		RefID:         ref.ID,
		StudentID:     sessions[0].StudentID,
		ListeningBand: bands.Listening,
		ReadingBand:   bands.Reading,
		WritingBand:   bands.Writing,
		SpeakingBand:  bands.Speaking,
		OverallBand:   scoring.OverallBand(bands),
		GradedModules: len(graded),
		GeneratedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert result %s: %w", ref, err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, res); err != nil {
			logger.Log.Warn("写入结果缓存失败", zap.String("ref", ref.String()), zap.Error(err))
		}
	}

	monitoring.Materializations.WithLabelValues("ok").Inc()
	logger.Log.Debug("Result materialized",
		zap.String("ref", ref.String()),
		zap.Float64("overall", res.OverallBand),
		zap.Int("graded", res.GradedModules))
	return res, nil
}

// TryMaterialize runs Materialize for a caller whose own write already
// succeeded. Failures are logged and returned as a warning message, never as
// an error.
func (s *ResultService) TryMaterialize(ctx context.Context, ref model.ResultRef) (warning string) {
	defer func() {
		if r := recover(); r != nil {
			warning = s.softFail(ref, fmt.Errorf("panic: %v", r))
		}
	}()

	_, err := s.Materialize(ctx, ref)
	if err == nil || errors.Is(err, util.ErrResultNotFound) {
		return ""
	}
	return s.softFail(ref, err)
}

func (s *ResultService) softFail(ref model.ResultRef, err error) string {
	monitoring.Materializations.WithLabelValues("failed").Inc()
	logger.Log.Warn("结果物化失败，稍后可重新计算", zap.String("ref", ref.String()), zap.Error(err))
	return "result is temporarily out of date and will be recomputed"
}

func (s *ResultService) evict(ctx context.Context, ref model.ResultRef) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, ref); err != nil {
		logger.Log.Warn("删除结果缓存失败", zap.String("ref", ref.String()), zap.Error(err))
	}
}

// Get reads a Result through the cache. Concurrent misses for one ref share
// a single database read that outlives the cancellation of the caller who
// started it. The read path only fills an empty entry; Materialize owns
// overwrites.
func (s *ResultService) Get(ctx context.Context, ref model.ResultRef) (*model.Result, error) {
	if !ref.Type.Valid() || ref.ID == "" {
		return nil, util.ErrInvalidResultRef
	}

	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, ref)
		if err != nil {
			logger.Log.Warn("读取结果缓存失败", zap.String("ref", ref.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(ref.String(), func() (interface{}, error) {
		res, err := s.ResultRepo.FindByRef(loadCtx, ref)
		if err != nil {
			return nil, err
		}
		if s.Cache != nil {
			if err := s.Cache.Fill(loadCtx, res); err != nil {
				logger.Log.Warn("写入结果缓存失败", zap.String("ref", ref.String()), zap.Error(err))
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Result), nil
}

// ModuleStatus describes one module of a ref. Writing and speaking are
// Graded only after an instructor has set the band.
type ModuleStatus struct {
	SessionID   string             `json:"sessionId"`
	State       model.SessionState `json:"state"`
	Completed   bool               `json:"completed"`
	Graded      bool               `json:"graded"`
	Band        *float64           `json:"band,omitempty"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

// GradingStatus is the dashboard view of one ref. Final is set once every
// started module is completed and graded.
type GradingStatus struct {
	Ref         model.ResultRef                 `json:"ref"`
	StudentID   string                          `json:"studentId"`
	Modules     map[model.TestType]ModuleStatus `json:"modules"`
	Final       bool                            `json:"final"`
	OverallBand *float64                        `json:"overallBand,omitempty"`
}

// statusRank orders sessions of one module for display: graded beats
// completed beats in progress.
func statusRank(s *model.TestSession) int {
	switch {
	case s.Graded():
		return 2
	case s.IsCompleted:
		return 1
	}
	return 0
}

func (s *ResultService) Status(ctx context.Context, ref model.ResultRef) (*GradingStatus, error) {
	if !ref.Type.Valid() || ref.ID == "" {
		return nil, util.ErrInvalidResultRef
	}
	sessions, err := s.SessionRepo.ListForRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, util.ErrResultNotFound
	}

	picked := make(map[model.TestType]*model.TestSession, 4)
	for i := range sessions {
		sess := &sessions[i]
		cur, ok := picked[sess.TestType]
		if !ok || statusRank(sess) > statusRank(cur) ||
			(statusRank(sess) == statusRank(cur) && completedAfter(sess, cur)) {
			picked[sess.TestType] = sess
		}
	}

	status := &GradingStatus{
		Ref:       ref,
		StudentID: sessions[0].StudentID,
		Modules:   make(map[model.TestType]ModuleStatus, len(picked)),
		Final:     true,
	}
	for t, sess := range picked {
		status.Modules[t] = ModuleStatus{
			SessionID:   sess.ID,
			State:       sess.State(),
			Completed:   sess.IsCompleted,
			Graded:      sess.Graded(),
			Band:        sess.Band,
			CompletedAt: sess.CompletedAt,
		}
		if !sess.Graded() {
			status.Final = false
		}
	}

	graded := latestGraded(sessions)
	if len(graded) > 0 {
		overall := scoring.OverallBand(bandsOf(graded))
		status.OverallBand = &overall
	}
	return status, nil
}

type RematerializeReport struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RematerializeAll recomputes every Result that has a completed session,
// Workers at a time. A failing ref is logged and counted; the rest go on.
func (s *ResultService) RematerializeAll(ctx context.Context) (*RematerializeReport, error) {
	ctx, span := tracing.StartSpan(ctx, "ResultService.RematerializeAll")
	refs, err := s.SessionRepo.CompletedRefs(ctx)
	if err != nil {
		tracing.End(span, err)
		return nil, err
	}

	var ok, failed int64
	var g errgroup.Group
	g.SetLimit(s.Workers)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := s.Materialize(ctx, ref); err != nil && !errors.Is(err, util.ErrResultNotFound) {
				atomic.AddInt64(&failed, 1)
				s.softFail(ref, err)
				return nil
			}
			atomic.AddInt64(&ok, 1)
			return nil
		})
	}
	err = g.Wait()
	tracing.End(span, err)

	report := &RematerializeReport{Total: len(refs), Succeeded: int(ok), Failed: int(failed)}
	logger.Log.Info("批量重新计算结果完成",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, err
}

// RunRematerializer recomputes all Results every interval until ctx ends.
func (s *ResultService) RunRematerializer(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RematerializeAll(ctx); err != nil && ctx.Err() == nil {
				logger.Log.Error("rematerialize error", zap.Error(err))
			}
		}
	}
}
