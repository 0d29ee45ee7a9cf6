package controller

import (
	"ielts_exam_backend/internal/service"
	"ielts_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradeController struct {
	SessionService *service.SessionService
}

func NewGradeController(sessionService *service.SessionService) *GradeController {
	return &GradeController{SessionService: sessionService}
}

// @Summary 教师评分（写作/口语）
// @Description 四项评分标准取平均，或 Task1/Task2 按 1:2 加权
// @Tags 评分
// @Accept json
// @Produce json
// @Param id path string true "SessionID"
// @Param body body service.GradeInput true "criteria 或 task1/task2"
// @Success 200 {object} util.Response{data=service.GradeOutcome}
// @Router /instructor/sessions/{id}/grade [post]
func (c *GradeController) GradeSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req service.GradeInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, err := c.SessionService.Grade(ctx.Request.Context(), ctx.Param("id"), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, out)
}
