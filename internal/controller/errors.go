package controller

import (
	"errors"
	"ielts_exam_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为 HTTP 状态码，未知错误记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrRetakeNotAllowed),
		errors.Is(err, util.ErrSessionCompleted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrTestNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrResultNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidTestType),
		errors.Is(err, util.ErrInvalidAnswers),
		errors.Is(err, util.ErrInvalidCriteria),
		errors.Is(err, util.ErrInvalidResultRef),
		errors.Is(err, util.ErrNotGradable),
		errors.Is(err, util.ErrSessionNotCompleted):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrLockTimeout):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
