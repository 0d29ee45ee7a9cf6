package controller

import (
	"ielts_exam_backend/internal/model"
	"ielts_exam_backend/internal/service"
	"ielts_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	ResultService  *service.ResultService
	SessionService *service.SessionService
}

func NewResultController(resultService *service.ResultService, sessionService *service.SessionService) *ResultController {
	return &ResultController{ResultService: resultService, SessionService: sessionService}
}

func refFromPath(ctx *gin.Context) model.ResultRef {
	return model.ResultRef{
		Type: model.RefType(ctx.Param("refType")),
		ID:   ctx.Param("refId"),
	}
}

// 学生只能查看自己的结果
func canView(user *util.Identity, studentID string) bool {
	return user.Role != util.RoleStudent || user.UserID == studentID
}

// @Summary 查询总成绩
// @Tags 成绩
// @Produce json
// @Param refType path string true "assignment 或 session"
// @Param refId path string true "作业ID或SessionID"
// @Success 200 {object} util.Response{data=model.Result}
// @Failure 404 {object} util.Response
// @Router /results/{refType}/{refId} [get]
func (c *ResultController) GetResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	res, err := c.ResultService.Get(ctx.Request.Context(), refFromPath(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !canView(user, res.StudentID) {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, res)
}

// @Summary 查询评分进度
// @Description 写作/口语在教师评分前 graded=false
// @Tags 成绩
// @Produce json
// @Param refType path string true "assignment 或 session"
// @Param refId path string true "作业ID或SessionID"
// @Success 200 {object} util.Response{data=service.GradingStatus}
// @Router /results/{refType}/{refId}/status [get]
func (c *ResultController) GetStatus(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	status, err := c.ResultService.Status(ctx.Request.Context(), refFromPath(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !canView(user, status.StudentID) {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, status)
}

// @Summary 重新计算单个结果
// @Tags 管理
// @Produce json
// @Param refType path string true "assignment 或 session"
// @Param refId path string true "作业ID或SessionID"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /admin/results/{refType}/{refId}/materialize [post]
func (c *ResultController) Materialize(ctx *gin.Context) {
	res, err := c.ResultService.Materialize(ctx.Request.Context(), refFromPath(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 重新计算全部结果
// @Tags 管理
// @Produce json
// @Success 200 {object} util.Response{data=service.RematerializeReport}
// @Router /admin/results/rematerialize [post]
func (c *ResultController) RematerializeAll(ctx *gin.Context) {
	report, err := c.ResultService.RematerializeAll(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary 重置考试（允许重考）
// @Tags 管理
// @Produce json
// @Param id path string true "SessionID"
// @Success 200 {object} util.Response
// @Router /admin/sessions/{id} [delete]
func (c *ResultController) ResetSession(ctx *gin.Context) {
	warning, err := c.SessionService.Reset(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	data := gin.H{"deleted": true}
	if warning != "" {
		data["warning"] = warning
	}
	util.Success(ctx, data)
}
