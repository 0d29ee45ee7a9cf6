package app

import (
	"ielts_exam_backend/docs"
	"ielts_exam_backend/internal/middleware"
	"ielts_exam_backend/internal/util"
	"ielts_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要身份的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.IdentityMiddleware())
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
		a.registerResultRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	student := rg.Group("/student")
	student.Use(middleware.RoleMiddleware(util.RoleStudent))
	{
		student.POST("/tests/:testId/start", c.session.Start)
		student.PUT("/tests/:testId/progress", c.session.SaveProgress)
		student.POST("/tests/:testId/submit", c.session.Submit)
		student.GET("/tests/:testId/session", c.session.GetSession)
	}
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(util.RoleInstructor))
	{
		instructor.POST("/sessions/:id/grade", c.grade.GradeSession)
	}
}

// 学生只能看自己的成绩，由 controller 判断
func (a *App) registerResultRoutes(rg *gin.RouterGroup, c *controllers) {
	results := rg.Group("/results")
	{
		results.GET("/:refType/:refId", c.result.GetResult)
		results.GET("/:refType/:refId/status", c.result.GetStatus)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(util.RoleAdmin))
	{
		admin.POST("/results/rematerialize", c.result.RematerializeAll)
		admin.POST("/results/:refType/:refId/materialize", c.result.Materialize)
		admin.DELETE("/sessions/:id", c.result.ResetSession)
	}
}
