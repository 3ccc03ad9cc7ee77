package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Ksohaib16/Test-Generator/api/swagger"
	"github.com/Ksohaib16/Test-Generator/internal/handler"
	"github.com/Ksohaib16/Test-Generator/internal/middleware"
	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/pkg/config"
	"github.com/Ksohaib16/Test-Generator/pkg/logger"
	corsmiddleware "github.com/Ksohaib16/Test-Generator/pkg/middleware/cors"
	reqidmiddleware "github.com/Ksohaib16/Test-Generator/pkg/middleware/requestid"
)

func newRouter(app *application) *gin.Engine {
	cfg := app.cfg
	setGinMode(cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(app.logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(app.metrics, app.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(app.auth, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})
	questionHandler := handler.NewQuestionHandler(app.questions)
	testHandler := handler.NewTestHandler(app.tests, app.papers, app.assignments)
	studentHandler := handler.NewStudentHandler(app.approvals)
	dashboardHandler := handler.NewDashboardHandler(app.dashboard)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Session(app.auth, cfg.Session.CookieName))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	teacher := authed.Group("")
	teacher.Use(middleware.RequireRoles(models.RoleTeacher))

	teacher.GET("/dashboard/stats", dashboardHandler.Stats)

	teacher.GET("/students", studentHandler.Roster)
	teacher.GET("/students/pending", studentHandler.Pending)
	teacher.POST("/students/:linkId/status", studentHandler.Decide)

	teacher.GET("/questions", questionHandler.List)
	teacher.POST("/questions", questionHandler.Create)

	tests := teacher.Group("/tests")
	tests.GET("", testHandler.List)
	tests.POST("", testHandler.Create)
	tests.GET("/:id", testHandler.Get)
	tests.PUT("/:id", testHandler.Update)
	tests.DELETE("/:id", middleware.Audit(app.audit, app.logger, models.AuditActionTestDelete, "test"), testHandler.Delete)
	tests.POST("/:id/pdf", testHandler.PDF)
	tests.POST("/:id/assign", middleware.Audit(app.audit, app.logger, models.AuditActionTestAssign, "test"), testHandler.Assign)
	tests.GET("/:id/assignments", testHandler.Assignments)
	tests.GET("/:id/assignments/export", testHandler.ExportAssignments)

	return r
}
