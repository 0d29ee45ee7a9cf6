package controller

import (
	"encoding/json"
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/service"
	"ielts_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

type StartSessionReq struct {
	TestType       model.TestType `json:"testType" binding:"required"`
	ItemWiseTestID string         `json:"itemWiseTestId"`
	AssignmentID   string         `json:"assignmentId"`
}

type SaveProgressReq struct {
	TestType       model.TestType  `json:"testType" binding:"required"`
	ItemWiseTestID string          `json:"itemWiseTestId"`
	Answers        json.RawMessage `json:"answers"`
}

type SubmitReq struct {
	TestType       model.TestType  `json:"testType" binding:"required"`
	ItemWiseTestID string          `json:"itemWiseTestId"`
	AssignmentID   string          `json:"assignmentId"`
	Answers        json.RawMessage `json:"answers"`
}

func sessionKey(ctx *gin.Context, user *util.Identity, testType model.TestType, itemWise string) model.SessionKey {
	return model.SessionKey{
		StudentID:      user.UserID,
		TestID:         ctx.Param("testId"),
		TestType:       testType,
		ItemWiseTestID: itemWise,
	}
}

// @Summary 开始考试
// @Description 首次调用创建 session，重复调用返回同一 session；已完成的考试不可重考
// @Tags 考试
// @Accept json
// @Produce json
// @Param testId path string true "试卷ID"
// @Param body body StartSessionReq true "模块类型"
// @Success 200 {object} util.Response{data=model.TestSession}
// @Failure 409 {object} util.Response
// @Router /student/tests/{testId}/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req StartSessionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess, err := c.SessionService.Start(ctx.Request.Context(), service.StartInput{
		Key:          sessionKey(ctx, user, req.TestType, req.ItemWiseTestID),
		AssignmentID: req.AssignmentID,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sess)
}

// @Summary 保存作答进度
// @Tags 考试
// @Accept json
// @Produce json
// @Param testId path string true "试卷ID"
// @Param body body SaveProgressReq true "作答"
// @Success 200 {object} util.Response{data=model.TestSession}
// @Router /student/tests/{testId}/progress [put]
func (c *SessionController) SaveProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req SaveProgressReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess, err := c.SessionService.SaveProgress(ctx.Request.Context(), sessionKey(ctx, user, req.TestType, req.ItemWiseTestID), req.Answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sess)
}

// @Summary 提交考试
// @Description 听力/阅读立即评分；写作/口语等待教师评分。结果汇总失败时仍返回成功并附带 warning
// @Tags 考试
// @Accept json
// @Produce json
// @Param testId path string true "试卷ID"
// @Param body body SubmitReq true "最终作答"
// @Success 200 {object} util.Response{data=service.CompleteOutcome}
// @Failure 409 {object} util.Response
// @Router /student/tests/{testId}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req SubmitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, err := c.SessionService.Complete(ctx.Request.Context(), service.CompleteInput{
		Key:          sessionKey(ctx, user, req.TestType, req.ItemWiseTestID),
		AssignmentID: req.AssignmentID,
		Answers:      req.Answers,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// @Summary 查询考试状态
// @Tags 考试
// @Produce json
// @Param testId path string true "试卷ID"
// @Param testType query string true "模块类型"
// @Param itemWiseTestId query string false "分项测试ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /student/tests/{testId}/session [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testType := model.TestType(ctx.Query("testType"))
	if !testType.Valid() {
		util.BadRequest(ctx, util.ErrInvalidTestType.Error())
		return
	}

	view, err := c.SessionService.Get(ctx.Request.Context(), sessionKey(ctx, user, testType, ctx.Query("itemWiseTestId")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
